package botanical

import (
	"bytes"
	"embed"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
)

//go:embed clases.csv
var clasesFS embed.FS

// Table es la tabla de referencia comuna -> clase -> especies.
// Se carga una sola vez al construir el Service y es de solo lectura.
type Table struct {
	// clase -> especies por comuna, preservando orden de aparición
	byComuna map[string]*comunaEntry
	comunas  []string // ordenadas alfabéticamente
}

type comunaEntry struct {
	clases   []string            // orden de aparición en el archivo
	especies map[string][]string // clase -> especies
}

// LoadTable parsea el CSV embebido (Comuna;Clase;Nombre Comun).
// Filas incompletas se descartan; especies duplicadas dentro de una
// clase se ignoran conservando la primera aparición.
func LoadTable() (*Table, error) {
	f, err := clasesFS.Open("clases.csv")
	if err != nil {
		return nil, fmt.Errorf("botanical: open reference table: %w", err)
	}
	defer f.Close()

	return parseTable(f)
}

func parseTable(r io.Reader) (*Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("botanical: read reference table: %w", err)
	}

	cr := csv.NewReader(bytes.NewReader(raw))
	cr.Comma = ';'
	cr.FieldsPerRecord = -1 // tolerar filas cortas, las filtramos abajo

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("botanical: parse reference table: %w", err)
	}

	t := &Table{byComuna: map[string]*comunaEntry{}}

	for i, rec := range records {
		if i == 0 {
			// header
			continue
		}
		if len(rec) < 3 {
			continue
		}

		comuna := strings.TrimSpace(rec[0])
		clase := strings.TrimSpace(rec[1])
		especie := strings.TrimSpace(rec[2])
		if comuna == "" || clase == "" || especie == "" {
			continue
		}

		entry, ok := t.byComuna[comuna]
		if !ok {
			entry = &comunaEntry{especies: map[string][]string{}}
			t.byComuna[comuna] = entry
			t.comunas = append(t.comunas, comuna)
		}

		if _, ok := entry.especies[clase]; !ok {
			entry.clases = append(entry.clases, clase)
		}
		if !contains(entry.especies[clase], especie) {
			entry.especies[clase] = append(entry.especies[clase], especie)
		}
	}

	sort.Strings(t.comunas)
	return t, nil
}

// Comunas devuelve las comunas registradas, ordenadas.
func (t *Table) Comunas() []string {
	out := make([]string, len(t.comunas))
	copy(out, t.comunas)
	return out
}

// Has reporta si la comuna existe en la tabla de referencia.
func (t *Table) Has(comuna string) bool {
	_, ok := t.byComuna[strings.TrimSpace(comuna)]
	return ok
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
