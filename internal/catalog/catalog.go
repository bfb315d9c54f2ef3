// Package catalog holds the fixed list of delivery points served by the
// distributor. The list is static reference data: it is compiled in,
// read-only at runtime, and every route is built from a subset of it.
package catalog

import (
	"github.com/h2brasil/delivery-backend/internal/models"
)

// FallbackCenter is substituted whenever the driver device cannot produce a
// GPS fix, so downstream components always have a coordinate (Itajaí center).
var FallbackCenter = models.Coordinate{Lat: -26.9046, Lng: -48.6612}

// points is the verified UBS/USF list for Itajaí - SC.
var points = []models.DeliveryPoint{
	{ID: "ubs-bambuzal", Name: "UBS Bambuzal", Address: "R. São Joaquim, 399 - Bambuzal, Itajaí - SC", Coords: models.Coordinate{Lat: -26.8985, Lng: -48.6820}},
	{ID: "ubs-brilhante", Name: "UBS Brilhante", Address: "R. José Lana, 70 - Brilhante II, Itajaí - SC", Coords: models.Coordinate{Lat: -26.9750, Lng: -48.7520}},
	{ID: "ubs-cabecudas", Name: "UBS Cabeçudas", Address: "R. Juvêncio Tavares D’Amaral, 600 - Cabeçudas, Itajaí - SC", Coords: models.Coordinate{Lat: -26.9250, Lng: -48.6350}},
	{ID: "ubs-canhanduba", Name: "UBS Canhanduba", Address: "Estr. Geral da Canhanduba, s/n - Canhanduba, Itajaí - SC", Coords: models.Coordinate{Lat: -26.9550, Lng: -48.7250}},
	{ID: "ubs-centro-viver", Name: "CEPICS (Práticas Integrativas)", Address: "R. Uruguai, 277 - Centro, Itajaí - SC", Coords: models.Coordinate{Lat: -26.9060, Lng: -48.6630}},
	{ID: "ubs-cidade-nova-1", Name: "UBS Cidade Nova I", Address: "R. Agílio Cunha, 870 - Cidade Nova, Itajaí - SC", Coords: models.Coordinate{Lat: -26.9090, Lng: -48.7010}},
	{ID: "ubs-cidade-nova-2", Name: "UBS Cidade Nova II", Address: "Av. Nilo Bittencourt, 1038 - Cidade Nova, Itajaí - SC", Coords: models.Coordinate{Lat: -26.9075, Lng: -48.6980}},
	{ID: "ubs-cordeiros", Name: "UBS Cordeiros", Address: "R. Dr. Reinaldo Schmithausen, 1801 - Cordeiros, Itajaí - SC", Coords: models.Coordinate{Lat: -26.8845, Lng: -48.6920}},
	{ID: "ubs-costa-cavalcante", Name: "UBS Costa Cavalcante", Address: "R. Espírito Santo, s/n - Costa Cavalcante, Itajaí - SC", Coords: models.Coordinate{Lat: -26.8890, Lng: -48.6720}},
	{ID: "ubs-cre-scem", Name: "CRESCEM (Centro de Ref.)", Address: "Av. Marcos Konder, 800 - Centro, Itajaí - SC", Coords: models.Coordinate{Lat: -26.9085, Lng: -48.6650}},
	{ID: "ubs-espinheiros", Name: "UBS Espinheiros", Address: "R. Fermino Vieira Cordeiro, 1550 - Espinheiros, Itajaí - SC", Coords: models.Coordinate{Lat: -26.8650, Lng: -48.7050}},
	{ID: "ubs-fazenda-1", Name: "UBS Fazenda", Address: "R. Milton Rossi, 100 - Fazenda, Itajaí - SC", Coords: models.Coordinate{Lat: -26.9150, Lng: -48.6550}},
	{ID: "ubs-imaru", Name: "UBS Imaruí", Address: "R. Leodegário Pedro da Silva, 437 - Imaruí, Itajaí - SC", Coords: models.Coordinate{Lat: -26.9000, Lng: -48.6750}},
	{ID: "ubs-itaipava", Name: "UBS Itaipava", Address: "Av. Itaipava, s/n - Itaipava, Itajaí - SC", Coords: models.Coordinate{Lat: -26.9450, Lng: -48.7400}},
	{ID: "ubs-jardim-esperanca", Name: "UBS Jardim Esperança", Address: "R. Sebastião Romeu Soares, 305 - Cordeiros, Itajaí - SC", Coords: models.Coordinate{Lat: -26.8800, Lng: -48.6980}},
	{ID: "ubs-limoeiro", Name: "UBS Limoeiro", Address: "Estr. Geral do Limoeiro, s/n - Limoeiro, Itajaí - SC", Coords: models.Coordinate{Lat: -26.9600, Lng: -48.7700}},
	{ID: "ubs-murta", Name: "UBS Murta", Address: "R. Orlandina Amália Pires Machado, 202 - Murta, Itajaí - SC", Coords: models.Coordinate{Lat: -26.8750, Lng: -48.6800}},
	{ID: "ubs-nossa-senhora", Name: "UBS N. Sra. das Graças", Address: "R. Uruguai, 458 (Bloco F7 Univali) - Centro, Itajaí - SC", Coords: models.Coordinate{Lat: -26.9120, Lng: -48.6600}},
	{ID: "ubs-parque-agricultor", Name: "UBS Parque do Agricultor", Address: "R. Mansueto Felizardo Vieira, s/n - Baía, Itajaí - SC", Coords: models.Coordinate{Lat: -26.9500, Lng: -48.7300}},
	{ID: "ubs-portal-2", Name: "UBS Portal II", Address: "R. Nilo Simas, 403 - Espinheiros, Itajaí - SC", Coords: models.Coordinate{Lat: -26.8950, Lng: -48.7050}},
	{ID: "ubs-praia-brava", Name: "UBS Praia Brava", Address: "R. Bráulio Werner, 114 - Praia Brava, Itajaí - SC", Coords: models.Coordinate{Lat: -26.9380, Lng: -48.6420}},
	{ID: "ubs-promorar-2", Name: "UBS Promorar II", Address: "R. Min. Luiz Gallotti, s/n - Cidade Nova, Itajaí - SC", Coords: models.Coordinate{Lat: -26.9150, Lng: -48.6900}},
	{ID: "ubs-rio-bonito", Name: "UBS Rio Bonito", Address: "R. Nilson Edson dos Santos, s/n - São Vicente, Itajaí - SC", Coords: models.Coordinate{Lat: -26.8920, Lng: -48.6850}},
	{ID: "ubs-salseiros", Name: "UBS Salseiros", Address: "Rod. Jorge Lacerda, s/n - Salseiros, Itajaí - SC", Coords: models.Coordinate{Lat: -26.8700, Lng: -48.7200}},
	{ID: "ubs-santa-regina", Name: "UBS Santa Regina", Address: "R. Paulo Cantídio da Silva, s/n - Espinheiros, Itajaí - SC", Coords: models.Coordinate{Lat: -26.8680, Lng: -48.7100}},
	{ID: "ubs-sao-joao-1", Name: "UBS São João I", Address: "R. Pedro Rangel, 1100 - São João, Itajaí - SC", Coords: models.Coordinate{Lat: -26.9020, Lng: -48.6700}},
	{ID: "ubs-sao-judas", Name: "UBS São Judas", Address: "R. Indaial, 1795 - São Judas, Itajaí - SC", Coords: models.Coordinate{Lat: -26.9150, Lng: -48.6750}},
	{ID: "ubs-sao-pedro", Name: "USF São Pedro (Rural)", Address: "R. Eduardo Leal, 80 - Itaipava (Zona Rural), Itajaí - SC", Coords: models.Coordinate{Lat: -26.9400, Lng: -48.7350}},
	{ID: "ubs-sao-vicente", Name: "UBS São Vicente", Address: "R. Estefano José Vanolli, 1318 - São Vicente, Itajaí - SC", Coords: models.Coordinate{Lat: -26.8970, Lng: -48.6875}},
	{ID: "ubs-votorantim", Name: "UBS Votorantim", Address: "R. Eudoro Silveira, 298 - Cordeiros, Itajaí - SC", Coords: models.Coordinate{Lat: -26.8820, Lng: -48.6950}},
}

var byID = func() map[string]models.DeliveryPoint {
	m := make(map[string]models.DeliveryPoint, len(points))
	for _, p := range points {
		m[p.ID] = p
	}
	return m
}()

// All returns every delivery point in declaration order. Callers must not
// mutate the returned slice.
func All() []models.DeliveryPoint {
	return points
}

// Get looks up a delivery point by id.
func Get(id string) (models.DeliveryPoint, bool) {
	p, ok := byID[id]
	return p, ok
}

// Select resolves a list of ids to full delivery points. The second return
// lists ids that are not in the catalog; resolved points keep the order of
// the requested ids.
func Select(ids []string) ([]models.DeliveryPoint, []string) {
	var (
		selected []models.DeliveryPoint
		unknown  []string
	)
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			selected = append(selected, p)
		} else {
			unknown = append(unknown, id)
		}
	}
	return selected, unknown
}
