package registry

import (
	"log/slog"

	"github.com/renoflow/renoflow/pkg/models"
)

// Module codes built into every deployment.
const (
	ModuleBARTH171 = "BAR-TH-171" // Pompe à chaleur air/eau
	ModuleBARTH175 = "BAR-TH-175" // Système solaire combiné
)

// NewDefaultRegistry creates a registry with all built-in modules registered.
func NewDefaultRegistry(logger *slog.Logger) *Registry {
	registry := NewRegistry(logger)
	RegisterBuiltinModules(registry)

	return registry
}

// RegisterBuiltinModules registers the built-in regulatory modules.
func RegisterBuiltinModules(registry *Registry) {
	registry.RegisterModule(barTH171Descriptor(),
		DisqualifyIfFalse(2, "construction_over_2_years",
			"le logement doit avoir été achevé depuis plus de 2 ans"),
		RequireIfFalse(4, "owner_occupant", "landlord_consent",
			"l'accord du propriétaire est requis pour un locataire"),
		RequireTrue(5, "accepted_terms", "les conditions doivent être acceptées"),
	)

	registry.RegisterModule(barTH175Descriptor(),
		DisqualifyIfFalse(2, "construction_over_2_years",
			"le logement doit avoir été achevé depuis plus de 2 ans"),
		RequireIfFalse(4, "owner_occupant", "landlord_consent",
			"l'accord du propriétaire est requis pour un locataire"),
		RequireTrue(6, "accepted_terms", "les conditions doivent être acceptées"),
	)
}

// BaseStepSchema is the fallback schema for steps without a module-specific
// override: a bare entity selection.
func BaseStepSchema() *models.JSONSchema {
	return &models.JSONSchema{
		Type:  "object",
		Title: "Sélection",
		Properties: map[string]*models.Property{
			"client_id": {Type: "string", Description: "Identifiant du client sélectionné", MinLength: intPtr(1)},
		},
		Required: []string{"client_id"},
	}
}

func clientStepSchema() *models.JSONSchema {
	return BaseStepSchema()
}

func housingStepSchema() *models.JSONSchema {
	return &models.JSONSchema{
		Type:  "object",
		Title: "Logement",
		Properties: map[string]*models.Property{
			"housing_type": {
				Type: "string",
				Enum: []any{"maison", "appartement"},
			},
			"construction_over_2_years": {
				Type:        "boolean",
				Description: "Logement achevé depuis plus de 2 ans",
			},
			"heated_surface_m2": {
				Type:    "number",
				Minimum: float64Ptr(1),
				Maximum: float64Ptr(10000),
			},
		},
		Required: []string{"housing_type", "construction_over_2_years", "heated_surface_m2"},
	}
}

func householdStepSchema() *models.JSONSchema {
	return &models.JSONSchema{
		Type:  "object",
		Title: "Ménage",
		Properties: map[string]*models.Property{
			"occupants": {
				Type:    "integer",
				Minimum: float64Ptr(1),
				Maximum: float64Ptr(50),
			},
			"fiscal_reference_income": {
				Type:    "number",
				Minimum: float64Ptr(0),
			},
			"owner_occupant": {
				Type:        "boolean",
				Description: "Le client occupe le logement en tant que propriétaire",
			},
			"landlord_consent": {
				Type:        "boolean",
				Description: "Accord écrit du propriétaire (locataires uniquement)",
			},
		},
		Required: []string{"occupants", "fiscal_reference_income", "owner_occupant"},
	}
}

func summaryStepSchema() *models.JSONSchema {
	return &models.JSONSchema{
		Type:  "object",
		Title: "Récapitulatif",
		Properties: map[string]*models.Property{
			"accepted_terms": {Type: "boolean"},
		},
		Required: []string{"accepted_terms"},
	}
}

func barTH171Descriptor() *models.ModuleDescriptor {
	return &models.ModuleDescriptor{
		Code:        ModuleBARTH171,
		Name:        "Pompe à chaleur air/eau",
		Description: "Installation d'une pompe à chaleur de type air/eau",
		Steps: []*models.StepDefinition{
			{Number: 1, Key: models.StepKey(1), Label: "Client", Schema: clientStepSchema()},
			{Number: 2, Key: models.StepKey(2), Label: "Logement", Schema: housingStepSchema()},
			{
				Number: 3, Key: models.StepKey(3), Label: "Équipement",
				Description: "Caractéristiques de la pompe à chaleur",
				Schema: &models.JSONSchema{
					Type: "object",
					Properties: map[string]*models.Property{
						"etas": {
							Type:        "integer",
							Description: "Efficacité énergétique saisonnière (%)",
							Minimum:     float64Ptr(111),
							Maximum:     float64Ptr(300),
						},
						"heating_energy": {
							Type: "string",
							Enum: []any{"electricite", "gaz", "fioul", "bois"},
						},
						"regulator_class": {
							Type: "string",
							Enum: []any{"IV", "V", "VI", "VII", "VIII"},
						},
					},
					Required: []string{"etas", "heating_energy", "regulator_class"},
				},
			},
			{Number: 4, Key: models.StepKey(4), Label: "Ménage", Schema: householdStepSchema()},
			{Number: 5, Key: models.StepKey(5), Label: "Récapitulatif", Schema: summaryStepSchema()},
		},
	}
}

func barTH175Descriptor() *models.ModuleDescriptor {
	return &models.ModuleDescriptor{
		Code:        ModuleBARTH175,
		Name:        "Système solaire combiné",
		Description: "Installation d'un système solaire combiné",
		Steps: []*models.StepDefinition{
			{Number: 1, Key: models.StepKey(1), Label: "Client", Schema: clientStepSchema()},
			{Number: 2, Key: models.StepKey(2), Label: "Logement", Schema: housingStepSchema()},
			{
				Number: 3, Key: models.StepKey(3), Label: "Capteurs",
				Description: "Dimensionnement des capteurs solaires",
				Schema: &models.JSONSchema{
					Type: "object",
					Properties: map[string]*models.Property{
						"collector_surface_m2": {
							Type:    "number",
							Minimum: float64Ptr(1),
							Maximum: float64Ptr(100),
						},
						"storage_volume_l": {
							Type:    "integer",
							Minimum: float64Ptr(100),
							Maximum: float64Ptr(5000),
						},
						"coverage_rate": {
							Type:        "number",
							Description: "Taux de couverture des besoins (%)",
							Minimum:     float64Ptr(0),
							Maximum:     float64Ptr(100),
						},
					},
					Required: []string{"collector_surface_m2", "storage_volume_l"},
				},
			},
			{Number: 4, Key: models.StepKey(4), Label: "Ménage", Schema: householdStepSchema()},
			{
				Number: 5, Key: models.StepKey(5), Label: "Documents",
				Schema: &models.JSONSchema{
					Type: "object",
					Properties: map[string]*models.Property{
						"quote_reference": {Type: "string", MinLength: intPtr(1)},
						"proof_of_address": {Type: "boolean"},
					},
					Required: []string{"quote_reference"},
				},
			},
			{Number: 6, Key: models.StepKey(6), Label: "Récapitulatif", Schema: summaryStepSchema()},
		},
	}
}

func float64Ptr(v float64) *float64 {
	return &v
}

func intPtr(v int) *int {
	return &v
}
