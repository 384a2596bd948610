package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	assert.Equal(t, Document{
		"left_sidebar_open":  Bool(true),
		"right_sidebar_open": Bool(true),
		"left_width":         Number(320),
		"right_width":        Number(320),
		"theme":              String("system"),
	}, Defaults())
}

func TestDefaultsReturnsCopy(t *testing.T) {
	d := Defaults()
	d["theme"] = String("dark")
	delete(d, "left_width")

	fresh := Defaults()
	assert.Equal(t, String("system"), fresh["theme"])
	assert.Contains(t, fresh, "left_width")
}

func TestDecodeDefaultsRejectsNonPrimitive(t *testing.T) {
	src := `
#Value: bool | number | string
#Document: [string]: #Value
defaults: #Document & {
	panel: {width: 3}
}
`
	_, err := decodeDefaults(src)
	require.Error(t, err)
}

func TestDecodeDefaultsRequiresConcreteValues(t *testing.T) {
	src := `
defaults: {
	left_width: int
}
`
	_, err := decodeDefaults(src)
	require.Error(t, err)
}

func TestDecodeDefaultsMissingField(t *testing.T) {
	_, err := decodeDefaults(`other: {a: 1}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no defaults field")
}

func TestDecodeDefaultsCustom(t *testing.T) {
	doc, err := decodeDefaults(`defaults: {theme: "dark", compact: false, gutter: 1.5}`)
	require.NoError(t, err)
	assert.Equal(t, Document{
		"theme":   String("dark"),
		"compact": Bool(false),
		"gutter":  Number(1.5),
	}, doc)
}
