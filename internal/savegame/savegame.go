// Package savegame turns savegame files into editable documents and back.
//
// A savegame is a Haxe serialized body followed by '#' and a 32 character
// checksum of that body. Older files end with a bare 40 character hex
// digest instead; those are accepted but cannot be verified.
package savegame

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/mcncl/evosave/internal/checksum"
	"github.com/mcncl/evosave/internal/errors"
	"github.com/mcncl/evosave/internal/hxser"
	"github.com/mcncl/evosave/internal/models"
	"github.com/mcncl/evosave/internal/normalize"
)

var tailPattern = regexp.MustCompile(`^(.*)(#[a-f0-9]{32}|[a-f0-9]{40})$`)

// SplitChecksum separates the serialized body from the trailing checksum.
// sum is returned without the '#' separator; legacy is true for a bare 40
// character suffix. Trailing line breaks are ignored.
func SplitChecksum(text string) (body, sum string, legacy bool, err error) {
	text = strings.TrimRight(text, "\r\n")
	m := tailPattern.FindStringSubmatch(text)
	if m == nil {
		return "", "", false, errors.NewFormatError("no checksum found at the end of the savegame", errors.ErrMissingChecksum)
	}
	body, sum = m[1], m[2]
	if strings.HasPrefix(sum, "#") {
		return body, sum[1:], false, nil
	}
	return body, sum, true, nil
}

// ChecksumMode selects what Decode does when the stored checksum differs
// from the computed one.
type ChecksumMode string

const (
	// ChecksumWarn records the mismatch in Document.Warnings and logs it.
	ChecksumWarn ChecksumMode = "warn"
	// ChecksumStrict fails the decode.
	ChecksumStrict ChecksumMode = "strict"
	// ChecksumIgnore skips verification.
	ChecksumIgnore ChecksumMode = "ignore"
)

// ParseChecksumMode parses a mode name. The empty string selects ChecksumWarn.
func ParseChecksumMode(s string) (ChecksumMode, error) {
	switch m := ChecksumMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ChecksumWarn, nil
	case ChecksumWarn, ChecksumStrict, ChecksumIgnore:
		return m, nil
	default:
		return "", errors.NewConfigError(fmt.Sprintf("unknown checksum mode %q (want warn, strict or ignore)", s), errors.ErrInvalidConfig)
	}
}

// ChecksumStatus is the outcome of checksum verification.
type ChecksumStatus int

const (
	ChecksumValid ChecksumStatus = iota
	ChecksumMismatch
	// ChecksumUnverified marks a legacy 40 character suffix.
	ChecksumUnverified
	// ChecksumSkipped is reported in ChecksumIgnore mode.
	ChecksumSkipped
)

func (s ChecksumStatus) String() string {
	switch s {
	case ChecksumValid:
		return "valid"
	case ChecksumMismatch:
		return "mismatch"
	case ChecksumUnverified:
		return "unverified"
	case ChecksumSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Document is a decoded savegame.
type Document struct {
	// Root is the normalized tree, usually an envelope with data, game
	// and time.
	Root models.Value
	// Checksum is the stored checksum without its separator.
	Checksum string
	// Computed is the checksum of the body, empty when not verified.
	Computed string
	Legacy   bool
	Status   ChecksumStatus
	Warnings []error
}

// Codec decodes and encodes savegames. It is immutable and safe for
// concurrent use.
type Codec struct {
	mode      ChecksumMode
	logger    *slog.Logger
	nodeLimit int
}

// Option configures a Codec.
type Option func(*Codec)

// WithChecksumMode sets the checksum mode. The default is ChecksumWarn.
func WithChecksumMode(mode ChecksumMode) Option {
	return func(c *Codec) {
		c.mode = mode
	}
}

// WithLogger sets the logger used for checksum warnings and debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Codec) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithNodeLimit caps the number of nodes a decoded document may expand to.
// By default the cap grows with the size of the body.
func WithNodeLimit(n int) Option {
	return func(c *Codec) {
		c.nodeLimit = n
	}
}

// NewCodec returns a Codec configured by opts.
func NewCodec(opts ...Option) *Codec {
	c := &Codec{
		mode:   ChecksumWarn,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Bounds for the default node limit. References are expanded into copies,
// so a short body can describe a very large document.
const (
	minNodeLimit = 1 << 16
	nodesPerByte = 64
)

var defaultCodec = NewCodec()

// Decode decodes text with the default codec.
func Decode(text string) (*Document, error) {
	return defaultCodec.Decode(text)
}

// Encode encodes root with the default codec.
func Encode(root models.Value) (string, error) {
	return defaultCodec.Encode(root)
}

// Decode splits off and verifies the checksum, decodes the body and
// normalizes it. No document is returned on error.
func (c *Codec) Decode(text string) (*Document, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.NewInputError("savegame is empty", errors.ErrEmptyInput)
	}

	body, sum, legacy, err := SplitChecksum(text)
	if err != nil {
		return nil, err
	}

	doc := &Document{Checksum: sum, Legacy: legacy}
	switch {
	case c.mode == ChecksumIgnore:
		doc.Status = ChecksumSkipped
	case legacy:
		doc.Status = ChecksumUnverified
		c.logger.Debug("legacy checksum suffix, not verified", "checksum", sum)
	default:
		doc.Computed = checksum.Sum(body)
		if checksum.Verify(body, sum) {
			doc.Status = ChecksumValid
			break
		}
		doc.Status = ChecksumMismatch
		mismatch := &errors.ChecksumMismatchError{Stored: sum, Computed: doc.Computed}
		if c.mode == ChecksumStrict {
			return nil, mismatch
		}
		c.logger.Warn("savegame checksum mismatch", "stored", sum, "computed", doc.Computed)
		doc.Warnings = append(doc.Warnings, mismatch)
	}

	raw, err := hxser.Decode(body)
	if err != nil {
		return nil, errors.NewDecodeError("invalid savegame body", err)
	}
	limit := c.nodeLimit
	if limit <= 0 {
		limit = minNodeLimit + nodesPerByte*len(body)
	}
	if doc.Root, err = normalize.NormalizeLimit(raw, limit); err != nil {
		return nil, errors.NewDecodeError("savegame body expands to too many values", err)
	}

	c.logger.Debug("decoded savegame", "bytes", len(text), "checksum", doc.Status.String())
	return doc, nil
}

// Encode serializes root and appends '#' and the checksum of the body.
func (c *Codec) Encode(root models.Value) (string, error) {
	raw, err := normalize.Denormalize(root)
	if err != nil {
		return "", errors.NewEncodeError("document cannot be serialized", err)
	}
	body, err := hxser.Encode(raw)
	if err != nil {
		return "", errors.NewEncodeError("document cannot be serialized", err)
	}
	sum := checksum.Sum(body)
	c.logger.Debug("encoded savegame", "bytes", len(body), "checksum", sum)
	return body + "#" + sum, nil
}
