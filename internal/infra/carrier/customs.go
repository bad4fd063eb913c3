package carrier

// EU加盟国。同一ブロック内なら通関申告は不要
var euCountries = map[string]bool{
	"AT": true, "BE": true, "BG": true, "HR": true, "CY": true,
	"CZ": true, "DK": true, "EE": true, "FI": true, "FR": true,
	"DE": true, "GR": true, "HU": true, "IE": true, "IT": true,
	"LV": true, "LT": true, "LU": true, "MT": true, "NL": true,
	"PL": true, "PT": true, "RO": true, "SK": true, "SI": true,
	"ES": true, "SE": true,
}

// 発送元と宛先が同一通商ブロックに収まらなければ通関申告対象
func customsDeclarable(origin string, destination string) bool {
	if euCountries[origin] && euCountries[destination] {
		return false
	}
	return origin != destination
}
