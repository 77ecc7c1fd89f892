package catalog

import (
	"strings"
)

// Category names a part slot on a bike. Front/rear variants exist as
// distinct slots but share one canonical catalog category so installation
// counts and reviews pool onto a single product record.
type Category string

const (
	CategoryChain          Category = "chain"
	CategoryCassette       Category = "cassette"
	CategoryChainring      Category = "chainring"
	CategoryTireFront      Category = "tire-front"
	CategoryTireRear       Category = "tire-rear"
	CategoryTire           Category = "tire"
	CategoryBrakePadFront  Category = "brake-pad-front"
	CategoryBrakePadRear   Category = "brake-pad-rear"
	CategoryBrakePad       Category = "brake-pad"
	CategoryBrakeFluid     Category = "brake-fluid"
	CategorySealantFront   Category = "sealant-front"
	CategorySealantRear    Category = "sealant-rear"
	CategorySealant        Category = "sealant"
	CategoryChainLube      Category = "chain-lube"
	CategoryFork           Category = "fork"
	CategoryShock          Category = "shock"
	CategoryBottomBracket  Category = "bottom-bracket"
	CategoryShiftCableSet  Category = "shift-cable-set"
	CategoryBrakeRotorFr   Category = "brake-rotor-front"
	CategoryBrakeRotorRr   Category = "brake-rotor-rear"
	CategoryBrakeRotor     Category = "brake-rotor"
	CategoryHandlebarTape  Category = "handlebar-tape"
	CategorySaddle         Category = "saddle"
	CategoryPedals         Category = "pedals"
	CategoryWheelsetFront  Category = "wheel-front"
	CategoryWheelsetRear   Category = "wheel-rear"
	CategoryWheel          Category = "wheel"
)

var slotCategories = map[Category]struct{}{
	CategoryChain:         {},
	CategoryCassette:      {},
	CategoryChainring:     {},
	CategoryTireFront:     {},
	CategoryTireRear:      {},
	CategoryBrakePadFront: {},
	CategoryBrakePadRear:  {},
	CategoryBrakeFluid:    {},
	CategorySealantFront:  {},
	CategorySealantRear:   {},
	CategoryChainLube:     {},
	CategoryFork:          {},
	CategoryShock:         {},
	CategoryBottomBracket: {},
	CategoryShiftCableSet: {},
	CategoryBrakeRotorFr:  {},
	CategoryBrakeRotorRr:  {},
	CategoryHandlebarTape: {},
	CategorySaddle:        {},
	CategoryPedals:        {},
	CategoryWheelsetFront: {},
	CategoryWheelsetRear:  {},
}

// aliases maps front/rear style siblings onto their shared catalog category.
var aliases = map[Category]Category{
	CategoryTireFront:     CategoryTire,
	CategoryTireRear:      CategoryTire,
	CategoryBrakePadFront: CategoryBrakePad,
	CategoryBrakePadRear:  CategoryBrakePad,
	CategorySealantFront:  CategorySealant,
	CategorySealantRear:   CategorySealant,
	CategoryBrakeRotorFr:  CategoryBrakeRotor,
	CategoryBrakeRotorRr:  CategoryBrakeRotor,
	CategoryWheelsetFront: CategoryWheel,
	CategoryWheelsetRear:  CategoryWheel,
}

// distance accrual applies to parts that wear with riding. Time-serviced
// consumables (sealant, lube, fluid) age by the calendar instead.
var distanceTracked = map[Category]struct{}{
	CategoryChain:         {},
	CategoryCassette:      {},
	CategoryChainring:     {},
	CategoryTireFront:     {},
	CategoryTireRear:      {},
	CategoryBrakePadFront: {},
	CategoryBrakePadRear:  {},
	CategoryBottomBracket: {},
	CategoryShiftCableSet: {},
	CategoryBrakeRotorFr:  {},
	CategoryBrakeRotorRr:  {},
	CategoryFork:          {},
	CategoryShock:         {},
	CategoryWheelsetFront: {},
	CategoryWheelsetRear:  {},
}

func Parse(raw string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := slotCategories[c]; ok {
		return c, true
	}
	return "", false
}

func IsSlotCategory(c Category) bool {
	_, ok := slotCategories[c]
	return ok
}

// Canonical resolves a slot category to the catalog category its products
// are registered under. Non-aliased categories map to themselves.
func Canonical(c Category) Category {
	if canon, ok := aliases[c]; ok {
		return canon
	}
	return c
}

func DistanceTracked(c Category) bool {
	_, ok := distanceTracked[c]
	return ok
}

// NormalizeName prepares brand/model strings for the unique catalog triple.
func NormalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func SlotCategories() []Category {
	out := make([]Category, 0, len(slotCategories))
	for c := range slotCategories {
		out = append(out, c)
	}
	return out
}
