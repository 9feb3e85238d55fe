package render

import (
	"fmt"
	"html/template"
	"sort"
	"strings"

	"github.com/MrSnakeDoc/menav/internal/domain"
)

const googleFontsBase = "https://fonts.googleapis.com/css2?"

const defaultFontWeight = "400"

// cssUnsafe strips characters that could end a declaration or the style element.
var cssUnsafe = strings.NewReplacer("<", "", ">", "", "{", "", "}", "", ";", "")

func sortedFontKeys(fonts map[string]domain.Font) []string {
	keys := make([]string, 0, len(fonts))
	for k := range fonts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GoogleFontsURL returns the stylesheet URL for every font sourced from
// Google Fonts, or "" when there is none.
func GoogleFontsURL(fonts map[string]domain.Font) string {
	var families []string
	for _, key := range sortedFontKeys(fonts) {
		f := fonts[key]
		if !strings.EqualFold(f.Source, "google") || f.Family == "" {
			continue
		}
		name := strings.NewReplacer(`"`, "", "'", "").Replace(f.Family)
		name = strings.ReplaceAll(strings.TrimSpace(name), " ", "+")
		weight := f.Weight
		if weight == "" {
			weight = defaultFontWeight
		}
		families = append(families, fmt.Sprintf("family=%s:wght@%s", name, weight))
	}
	if len(families) == 0 {
		return ""
	}
	return googleFontsBase + strings.Join(families, "&") + "&display=swap"
}

// FontVariables returns the :root block declaring --font-<key> and
// --font-weight-<key> for each font, or "" when there are no fonts.
func FontVariables(fonts map[string]domain.Font) template.CSS {
	if len(fonts) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(":root {\n")
	for _, key := range sortedFontKeys(fonts) {
		f := fonts[key]
		k := cssUnsafe.Replace(key)
		fmt.Fprintf(&b, "  --font-%s: %s;\n", k, cssUnsafe.Replace(f.Family))
		if f.Weight != "" {
			fmt.Fprintf(&b, "  --font-weight-%s: %s;\n", k, cssUnsafe.Replace(f.Weight))
		}
	}
	b.WriteString("}")
	return template.CSS(b.String())
}
