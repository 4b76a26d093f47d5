package lots

import (
	"reflect"
	"testing"
)

func TestParseComposicion(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want map[string]float64
	}{
		{
			name: "pares válidos",
			in:   "Quillay:60,Ulmo:40",
			want: map[string]float64{"Quillay": 60, "Ulmo": 40},
		},
		{
			name: "un solo par",
			in:   "Trébol Blanco:12.5",
			want: map[string]float64{"Trébol Blanco": 12.5},
		},
		{
			name: "string vacío",
			in:   "",
			want: map[string]float64{},
		},
		{
			name: "espacios alrededor de los tokens",
			in:   " Quillay : 60 , Ulmo : 40 ",
			want: map[string]float64{"Quillay": 60, "Ulmo": 40},
		},
		{
			name: "par sin porcentaje se descarta",
			in:   "Quillay:60,Ulmo:",
			want: map[string]float64{"Quillay": 60},
		},
		{
			name: "par sin separador se descarta",
			in:   "Quillay:60,Ulmo",
			want: map[string]float64{"Quillay": 60},
		},
		{
			name: "porcentaje no numérico se descarta",
			in:   "Quillay:abc,Ulmo:40",
			want: map[string]float64{"Ulmo": 40},
		},
		{
			name: "separadores de más se descartan",
			in:   "Quillay:60:extra,Ulmo:40",
			want: map[string]float64{"Ulmo": 40},
		},
		{
			name: "especie vacía se descarta",
			in:   ":60,Ulmo:40",
			want: map[string]float64{"Ulmo": 40},
		},
		{
			name: "comas colgantes",
			in:   ",Quillay:60,,",
			want: map[string]float64{"Quillay": 60},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseComposicion(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ParseComposicion(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestEncodeComposicion_Deterministico(t *testing.T) {
	comp := map[string]float64{"Ulmo": 40, "Quillay": 60}

	got := EncodeComposicion(comp)
	want := "Quillay:60,Ulmo:40"
	if got != want {
		t.Fatalf("EncodeComposicion = %q, want %q", got, want)
	}

	// Round-trip
	if parsed := ParseComposicion(got); !reflect.DeepEqual(parsed, comp) {
		t.Fatalf("round-trip = %v, want %v", parsed, comp)
	}
}

func TestEncodeComposicion_Vacia(t *testing.T) {
	if got := EncodeComposicion(nil); got != "" {
		t.Fatalf("EncodeComposicion(nil) = %q, want vacío", got)
	}
}
