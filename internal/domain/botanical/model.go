package botanical

// Class es una clase botánica de una comuna, lista para renderear:
// metadata visual + especies melíferas de esa clase.
type Class struct {
	Clase       string
	Titulo      string
	Icono       string
	Color       string
	Descripcion string
	Categoria   string
	Altura      string

	Especies []string
	Cantidad int
}

// classMeta describe cada clase del archivo de referencia.
type classMeta struct {
	Icono       string
	Color       string
	Titulo      string
	Descripcion string
	Categoria   string
	Altura      string
}

// Mapeo de clases botánicas con iconos, colores y descripciones pedagógicas.
var clasesBotanicas = map[string]classMeta{
	"Arbol": {
		Icono:       "🌳",
		Color:       "#22c55e",
		Titulo:      "Árboles",
		Descripcion: "Plantas leñosas perennes de gran tamaño",
		Categoria:   "Leñosa",
		Altura:      "Mayor a 5 metros",
	},
	"Arbol/Arbusto": {
		Icono:       "🌲",
		Color:       "#16a34a",
		Titulo:      "Árboles/Arbustos",
		Descripcion: "Plantas leñosas de tamaño variable",
		Categoria:   "Leñosa Mixta",
		Altura:      "2-5 metros",
	},
	"Arbusto": {
		Icono:       "🌿",
		Color:       "#84cc16",
		Titulo:      "Arbustos",
		Descripcion: "Plantas leñosas de tamaño mediano",
		Categoria:   "Leñosa",
		Altura:      "1-2 metros",
	},
	"Hierba": {
		Icono:       "🌱",
		Color:       "#65a30d",
		Titulo:      "Hierbas",
		Descripcion: "Plantas herbáceas sin estructura leñosa",
		Categoria:   "Herbácea",
		Altura:      "Menor a 1 metro",
	},
	"Arbusto/Hierba": {
		Icono:       "🌾",
		Color:       "#a3a3a3",
		Titulo:      "Arbustos/Hierbas",
		Descripcion: "Plantas con características mixtas",
		Categoria:   "Mixta",
		Altura:      "Variable",
	},
	"Arbol/Hierba": {
		Icono:       "🌴",
		Color:       "#10b981",
		Titulo:      "Árboles/Hierbas",
		Descripcion: "Combinación de características arbóreas y herbáceas",
		Categoria:   "Mixta",
		Altura:      "Variable",
	},
}

// metaFor devuelve la metadata de una clase, con fallback genérico
// para clases nuevas del CSV que aún no tienen mapeo visual.
func metaFor(clase string) classMeta {
	if m, ok := clasesBotanicas[clase]; ok {
		return m
	}
	return classMeta{
		Icono:       "🌿",
		Color:       "#6b7280",
		Titulo:      clase,
		Descripcion: "Clase botánica",
		Categoria:   "Otra",
		Altura:      "Variable",
	}
}

// Prioridad de categorías para el orden de renderizado del gráfico.
// Empates conservan el orden del archivo de referencia.
var categoryPriority = map[string]int{
	"Leñosa":       1,
	"Leñosa Mixta": 2,
	"Herbácea":     3,
	"Mixta":        4,
	"Otra":         5,
}

func priorityFor(categoria string) int {
	if p, ok := categoryPriority[categoria]; ok {
		return p
	}
	return 5
}
