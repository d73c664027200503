package pricing

// ItemType tags the input schema version persisted with each quote item.
const ItemType = "panel_letters_v1"

// ReasonCode justifies a manual override.
type ReasonCode string

const (
	ReasonCustomerDiscount ReasonCode = "customer_discount"
	ReasonLabourVariance   ReasonCode = "labour_variance"
	ReasonMaterialVariance ReasonCode = "material_variance"
	ReasonPriceMatch       ReasonCode = "price_match"
	ReasonManagerApproval  ReasonCode = "manager_approval"
	ReasonOther            ReasonCode = "other"
)

// Input bounds. Larger values are rejected rather than priced; they keep every
// count and pence figure well inside int64.
const (
	MaxDimensionMM = 50000
	MaxLetterQty   = 1000
	MaxLabourHours = 10000
)

// Aperture is a cut-out window in the panel backed by illuminated opal.
type Aperture struct {
	WidthMM  float64 `json:"width_mm" validate:"gt=0,lte=50000"`
	HeightMM float64 `json:"height_mm" validate:"gt=0,lte=50000"`
	OpalType string  `json:"opal_type" validate:"required"`
}

// LetterSet is a group of identical letters.
type LetterSet struct {
	Type        LetterType `json:"type" validate:"oneof=Fabricated Komacel Acrylic"`
	Qty         int        `json:"qty" validate:"min=1,max=1000"`
	HeightMM    float64    `json:"height_mm" validate:"gt=0,lte=50000"`
	Finish      string     `json:"finish" validate:"required"`
	Illuminated bool       `json:"illuminated"`
}

// LabourHours holds hours per labour category.
type LabourHours struct {
	Router      float64 `json:"router" validate:"gte=0,lte=10000"`
	Fabrication float64 `json:"fabrication" validate:"gte=0,lte=10000"`
	Assembly    float64 `json:"assembly" validate:"gte=0,lte=10000"`
	Vinyl       float64 `json:"vinyl" validate:"gte=0,lte=10000"`
	Print       float64 `json:"print" validate:"gte=0,lte=10000"`
}

// Hours returns the hours booked against task.
func (h LabourHours) Hours(task LabourTask) float64 {
	switch task {
	case TaskRouter:
		return h.Router
	case TaskFabrication:
		return h.Fabrication
	case TaskAssembly:
		return h.Assembly
	case TaskVinyl:
		return h.Vinyl
	case TaskPrint:
		return h.Print
	}
	return 0
}

func (h *LabourHours) set(task LabourTask, hours float64) {
	switch task {
	case TaskRouter:
		h.Router = hours
	case TaskFabrication:
		h.Fabrication = hours
	case TaskAssembly:
		h.Assembly = hours
	case TaskVinyl:
		h.Vinyl = hours
	case TaskPrint:
		h.Print = hours
	}
}

// Override replaces one input value with a justified manual figure.
type Override struct {
	FieldPath  string     `json:"field_path" validate:"oneof=markup_percent labour_hours.router labour_hours.fabrication labour_hours.assembly labour_hours.vinyl labour_hours.print"`
	Override   float64    `json:"override" validate:"gte=0,lte=10000"`
	ReasonCode ReasonCode `json:"reason_code" validate:"oneof=customer_discount labour_variance material_variance price_match manager_approval other"`
	Note       string     `json:"note" validate:"notblank"`
}

// Input is one panel_letters_v1 request.
type Input struct {
	WidthMM         float64     `json:"width_mm" validate:"gt=0,lte=50000"`
	HeightMM        float64     `json:"height_mm" validate:"gt=0,lte=50000"`
	AllowanceMM     float64     `json:"allowance_mm" validate:"gte=0,lte=50000"`
	PanelSize       string      `json:"panel_size" validate:"required"`
	PanelMaterial   string      `json:"panel_material" validate:"required"`
	PanelFinish     string      `json:"panel_finish" validate:"required"`
	Aperture        *Aperture   `json:"aperture,omitempty"`
	LetterSets      []LetterSet `json:"letter_sets" validate:"min=1,max=3,dive"`
	LabourHours     LabourHours `json:"labour_hours"`
	TransformerType string      `json:"transformer_type,omitempty"`
	MarkupPercent   float64     `json:"markup_percent" validate:"gte=0,lte=100"`
	Overrides       []Override  `json:"overrides,omitempty" validate:"omitempty,dive"`
}

// Derived contains the physical quantities behind a price.
type Derived struct {
	PanelsX            int     `json:"panels_x"`
	PanelsY            int     `json:"panels_y"`
	PanelsNeeded       int     `json:"panels_needed"`
	AreaM2             float64 `json:"area_m2"`
	ApertureLEDs       int     `json:"aperture_leds"`
	LettersTotalLEDs   int     `json:"letters_total_leds"`
	TotalLEDs          int     `json:"total_leds"`
	TransformersNeeded int     `json:"transformers_needed"`
}

// Costs is the itemised breakdown in pence.
type Costs struct {
	PanelMaterialPence   int64 `json:"panel_material_pence"`
	PanelFinishPence     int64 `json:"panel_finish_pence"`
	OpalPence            int64 `json:"opal_pence"`
	ApertureLEDPence     int64 `json:"aperture_led_pence"`
	TransformerPence     int64 `json:"transformer_pence"`
	LettersTotalPence    int64 `json:"letters_total_pence"`
	LabourPence          int64 `json:"labour_pence"`
	MaterialsBasePence   int64 `json:"materials_base_pence"`
	MaterialsMarkupPence int64 `json:"materials_markup_pence"`
}

// LetterSetBreakdown prices one letter set.
type LetterSetBreakdown struct {
	Index         int        `json:"index"`
	Type          LetterType `json:"type"`
	Qty           int        `json:"qty"`
	HeightMM      float64    `json:"height_mm"`
	Finish        string     `json:"finish"`
	Illuminated   bool       `json:"illuminated"`
	UnitCostPence int64      `json:"unit_cost_pence"`
	LEDs          int        `json:"leds"`
	LEDCostPence  int64      `json:"led_cost_pence"`
	CostPence     int64      `json:"cost_pence"`
}

// AppliedOverride records an override that changed the computation.
type AppliedOverride struct {
	FieldPath  string     `json:"field_path"`
	Original   float64    `json:"original"`
	Override   float64    `json:"override"`
	ReasonCode ReasonCode `json:"reason_code"`
	Note       string     `json:"note"`
}

// Output is the result of pricing one Input. Callers must check OK before reading any
// other field: a failed Output carries only Errors.
type Output struct {
	OK                  bool                 `json:"ok"`
	Errors              []string             `json:"errors,omitempty"`
	Derived             *Derived             `json:"derived,omitempty"`
	Costs               *Costs               `json:"costs,omitempty"`
	LetterSetsBreakdown []LetterSetBreakdown `json:"letter_sets_breakdown,omitempty"`
	Warnings            []string             `json:"warnings,omitempty"`
	Overrides           []AppliedOverride    `json:"overrides,omitempty"`
	LineTotalPence      int64                `json:"line_total_pence"`
}

// Recalculate prices in against rc. It is pure: identical arguments always produce an
// identical Output.
func Recalculate(in Input, rc RateCard) Output {
	if errs := Validate(in, rc); len(errs) > 0 {
		return Output{OK: false, Errors: errs}
	}

	effective, applied := ApplyOverrides(in)

	layout, err := ComputeLayout(effective.WidthMM, effective.HeightMM, effective.AllowanceMM, effective.PanelSize)
	if err != nil {
		return Output{OK: false, Errors: []string{err.Error()}}
	}
	illum := ComputeIllumination(effective.LetterSets, effective.Aperture, effective.TransformerType, rc)
	costs, sets, err := Aggregate(layout, illum, effective, rc)
	if err != nil {
		return Output{OK: false, Errors: []string{err.Error()}}
	}

	return Output{
		OK: true,
		Derived: &Derived{
			PanelsX:            layout.PanelsX,
			PanelsY:            layout.PanelsY,
			PanelsNeeded:       layout.PanelsNeeded,
			AreaM2:             layout.AreaM2,
			ApertureLEDs:       illum.ApertureLEDs,
			LettersTotalLEDs:   illum.LettersTotalLEDs,
			TotalLEDs:          illum.TotalLEDs,
			TransformersNeeded: illum.TransformersNeeded,
		},
		Costs:               &costs,
		LetterSetsBreakdown: sets,
		Warnings:            illum.Warnings,
		Overrides:           applied,
		LineTotalPence:      LineTotal(costs),
	}
}

// LineTotal is materials plus markup plus labour.
func LineTotal(c Costs) int64 {
	return c.MaterialsBasePence + c.MaterialsMarkupPence + c.LabourPence
}
