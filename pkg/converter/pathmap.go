package converter

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/samhuann/SuperEbookMachine/pkg/util"
)

// BuildOutputPath maps an input file to its output location.
//
// With flatten=false the directory structure under root is mirrored under
// outRoot and only the extension changes. With flatten=true everything is
// written directly into outRoot; to keep names unique the sanitized relative
// parent directories are appended to the sanitized filename stem, joined
// with "__" (filename first so output listings stay readable). Sanitization
// can make two distinct relative paths collide on the same flattened name;
// that is an accepted limitation of flatten mode, not defended against here.
//
// keepOriginalExt preserves the input's own extension (copy mode); otherwise
// the extension becomes targetExt, lower-cased with a leading dot enforced.
func BuildOutputPath(root, outRoot, input, targetExt string, flatten, keepOriginalExt bool) (string, error) {
	rel, err := filepath.Rel(root, input)
	if err != nil {
		return "", fmt.Errorf("input %q is not under root %q: %w", input, root, err)
	}

	suffix := filepath.Ext(input)
	if !keepOriginalExt {
		suffix = "." + strings.TrimPrefix(strings.ToLower(targetExt), ".")
	}

	if !flatten {
		out := filepath.Join(outRoot, rel)
		ext := filepath.Ext(out)
		return out[:len(out)-len(ext)] + suffix, nil
	}

	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	base := util.SanitizeComponent(stem)
	dir := filepath.Dir(rel)
	if dir != "." {
		parents := strings.Split(filepath.ToSlash(dir), "/")
		for i, p := range parents {
			parents[i] = util.SanitizeComponent(p)
		}
		base = base + "__" + strings.Join(parents, "__")
	}
	return filepath.Join(outRoot, base+suffix), nil
}

// NormalizeExtensions parses a list of raw extension tokens (possibly
// comma-separated, with or without leading dots, any case) into the canonical
// lower-cased dot-prefixed form, deduplicated, in first-seen order.
func NormalizeExtensions(raw []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, token := range raw {
		for _, part := range strings.Split(token, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			if !strings.HasPrefix(part, ".") {
				part = "." + part
			}
			if _, dup := seen[part]; dup {
				continue
			}
			seen[part] = struct{}{}
			out = append(out, part)
		}
	}
	return out
}
