package pagination

// WindowSize es la cantidad máxima de links de página visibles.
const WindowSize = 5

// Window calcula los números de página a mostrar alrededor de current.
//   - total <= 5: todas
//   - current <= 3: 1..5
//   - current >= total-2: las últimas 5
//   - resto: current-2 .. current+2
func Window(current, total int) []int {
	if total <= 0 {
		return []int{}
	}

	var start int
	switch {
	case total <= WindowSize:
		start = 1
	case current <= 3:
		start = 1
	case current >= total-2:
		start = total - WindowSize + 1
	default:
		start = current - 2
	}

	n := WindowSize
	if total < n {
		n = total
	}
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, start+i)
	}
	return out
}
