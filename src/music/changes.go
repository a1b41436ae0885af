package music

import "strings"

// Changes is a set of independent pending on-disk operations.
type Changes uint8

const (
	ChangeWriteTags Changes = 1 << iota
	ChangeEmbedImage
	ChangeRename
	ChangeMove
	// ChangeIgnoreContainment lets a rename touch a file outside the library root.
	ChangeIgnoreContainment
)

const (
	ChangeTags     = ChangeWriteTags | ChangeEmbedImage
	ChangeOrganize = ChangeRename | ChangeMove | ChangeIgnoreContainment
	ChangeAll      = ChangeTags | ChangeOrganize
)

var changeNames = []struct {
	flag Changes
	name string
}{
	{ChangeWriteTags, "write_tags"},
	{ChangeEmbedImage, "embed_image"},
	{ChangeRename, "rename"},
	{ChangeMove, "move"},
	{ChangeIgnoreContainment, "ignore_containment"},
}

// Has reports whether any flag of f is set in c.
func (c Changes) Has(f Changes) bool {
	return c&f != 0
}

// Names lists the set flags in declaration order.
func (c Changes) Names() []string {
	names := []string{}
	for _, n := range changeNames {
		if c.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	return names
}

func (c Changes) String() string {
	if c == 0 {
		return "none"
	}
	return strings.Join(c.Names(), "|")
}
