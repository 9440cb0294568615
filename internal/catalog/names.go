package catalog

import (
	"strings"
	"unicode"
)

// NameFor derives a catalog name from a CamelCase identifier:
//
//	EnvSinglenodeKafkaSsl -> singlenode-kafka-ssl
//	ConfigHdp3            -> hdp3
//	HadoopKerberosKms     -> hadoop-kerberos-kms
//
// A leading "Env" or "Config" word is dropped. Runs of capitals are kept
// together, so "HTTPProxy" becomes "http-proxy".
func NameFor(identifier string) string {
	for _, prefix := range []string{"Env", "Config"} {
		rest, ok := strings.CutPrefix(identifier, prefix)
		if ok && rest != "" && unicode.IsUpper(rune(rest[0])) {
			identifier = rest
			break
		}
	}

	runes := []rune(identifier)
	var sb strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				sb.WriteByte('-')
			}
		}
		sb.WriteRune(unicode.ToLower(r))
	}
	return sb.String()
}
