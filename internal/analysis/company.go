package analysis

import (
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// UnknownCompany 无法从文件名推断公司名时的占位值
const UnknownCompany = "UNKNOWN"

var (
	delimiterRe = regexp.MustCompile(`[\s_\-]+`)
	uuidRe      = regexp.MustCompile(`(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)
	hexTokenRe  = regexp.MustCompile(`^[0-9a-f]{32}$`)
	digitsRe    = regexp.MustCompile(`^\d+$`)
)

// CompanyFromFileName 从上传文件名推断公司名
// Pine_Labs_DRHP.pdf -> Pine Labs Drhp
func CompanyFromFileName(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = uuidRe.ReplaceAllString(base, " ")

	var tokens []string
	for _, token := range delimiterRe.Split(base, -1) {
		token = strings.TrimSpace(token)
		if token == "" || token == "." {
			continue
		}
		if hexTokenRe.MatchString(strings.ToLower(token)) || digitsRe.MatchString(token) {
			continue
		}
		tokens = append(tokens, token)
	}

	if len(tokens) == 0 {
		return UnknownCompany
	}
	return cases.Title(language.English).String(strings.Join(tokens, " "))
}
