package lots

import (
	"sort"
	"strconv"
	"strings"
)

// La composición viaja como string delimitado "especie:porcentaje,..."
// (formato suelto, sin versionar, heredado del contrato existente).

// EncodeComposicion serializa la composición de forma determinista
// (especies ordenadas alfabéticamente).
func EncodeComposicion(comp map[string]float64) string {
	if len(comp) == 0 {
		return ""
	}

	especies := make([]string, 0, len(comp))
	for e := range comp {
		especies = append(especies, e)
	}
	sort.Strings(especies)

	parts := make([]string, 0, len(especies))
	for _, e := range especies {
		parts = append(parts, e+":"+strconv.FormatFloat(comp[e], 'f', -1, 64))
	}
	return strings.Join(parts, ",")
}

// ParseComposicion parsea el string delimitado con tolerancia:
// cada par debe partir en exactamente dos tokens no vacíos y el
// porcentaje debe ser numérico, si no el par se descarta en silencio.
func ParseComposicion(s string) map[string]float64 {
	out := map[string]float64{}

	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		tokens := strings.Split(pair, ":")
		if len(tokens) != 2 {
			continue
		}

		especie := strings.TrimSpace(tokens[0])
		pctRaw := strings.TrimSpace(tokens[1])
		if especie == "" || pctRaw == "" {
			continue
		}

		pct, err := strconv.ParseFloat(pctRaw, 64)
		if err != nil {
			continue
		}

		out[especie] = pct
	}

	return out
}
