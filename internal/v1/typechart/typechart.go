// Package typechart computes type-effectiveness damage (spec C1).
package typechart

// Type is an elemental card type. The zero value is Fire; callers should
// use the named constants below.
type Type uint8

const (
	Fire Type = iota
	Grass
	Water
	Normal
)

// effectiveness is the multiplier table: effectiveness[attacker][defender].
// Fire > Grass > Water > Fire is the classic rock-paper-scissors cycle;
// Normal has no advantage or disadvantage against anything, including
// itself, and nothing has an advantage against it.
var effectiveness = map[Type]map[Type]float64{
	Fire: {
		Fire:   1,
		Grass:  2,
		Water:  0.5,
		Normal: 1,
	},
	Grass: {
		Fire:   0.5,
		Grass:  1,
		Water:  2,
		Normal: 1,
	},
	Water: {
		Fire:   2,
		Grass:  0.5,
		Water:  1,
		Normal: 1,
	},
	Normal: {
		Fire:   1,
		Grass:  1,
		Water:  1,
		Normal: 1,
	},
}

// Damage computes the damage an attack of the given base power and
// attacker type deals to a defender of the given type. The result is
// floored and clamped to a minimum of 0, and is deterministic and total
// for every known pair of types.
func Damage(attack int, attackerType, defenderType Type) int {
	row, ok := effectiveness[attackerType]
	if !ok {
		return max0(attack)
	}
	mult, ok := row[defenderType]
	if !ok {
		mult = 1
	}

	// Explicit floor via integer arithmetic: multiply by the numerator
	// first, then divide, so a 0.5 multiplier never rounds up.
	numerator, denominator := ratio(mult)
	d := (attack * numerator) / denominator
	return max0(d)
}

// ratio expresses a multiplier as an integer numerator/denominator pair
// so Damage can floor via integer division rather than float rounding.
func ratio(mult float64) (int, int) {
	switch mult {
	case 2:
		return 2, 1
	case 0.5:
		return 1, 2
	default:
		return 1, 1
	}
}

func max0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
