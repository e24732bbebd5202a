package versioning

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultBase is the base version when no tag is reachable.
const DefaultBase = "v0.0.0"

// Tag label and hash used when the repository has no history at all.
const (
	noHistoryBranch = "none"
	noHistoryHash   = "g0000000"
)

var strictTag = regexp.MustCompile(`^v\d+\.\d+\.\d+$`)

// DescriptorKind classifies the describe output.
type DescriptorKind int

const (
	// NoHistory: describe produced nothing.
	NoHistory DescriptorKind = iota
	// BareHash: no usable tag; only the abbreviated commit is known.
	BareHash
	// Tagged: tag-N-gHASH with a strict version tag.
	Tagged
)

// Descriptor is the parsed form of `git describe --always --tags --long`.
type Descriptor struct {
	Kind    DescriptorKind
	Tag     string // Tagged only
	Commits int    // Tagged only
	Hash    string // "g" + abbreviated commit
}

// ParseDescription splits describe output from the right on "-". Output that
// does not have the strict tag-N-gHASH shape degrades to BareHash using the
// trailing token.
func ParseDescription(desc string) Descriptor {
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return Descriptor{Kind: NoHistory, Hash: noHistoryHash}
	}

	last := strings.LastIndex(desc, "-")
	if last < 0 {
		return Descriptor{Kind: BareHash, Hash: hashToken(desc)}
	}
	hash := hashToken(desc[last+1:])

	rest := desc[:last]
	second := strings.LastIndex(rest, "-")
	if second < 0 {
		return Descriptor{Kind: BareHash, Hash: hash}
	}
	tag, count := rest[:second], rest[second+1:]
	n, err := strconv.Atoi(count)
	if err != nil || n < 0 || !strictTag.MatchString(tag) || !strings.HasPrefix(desc[last+1:], "g") {
		return Descriptor{Kind: BareHash, Hash: hash}
	}
	return Descriptor{Kind: Tagged, Tag: tag, Commits: n, Hash: hash}
}

// hashToken prefixes an abbreviated hash with "g" unless describe already did.
// Hex digits never include 'g', so the check is unambiguous.
func hashToken(tok string) string {
	if strings.HasPrefix(tok, "g") {
		return tok
	}
	return "g" + tok
}
