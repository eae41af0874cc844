package services

// PointsForPosition is the ranking points a final tournament position is worth:
// 1st 10, 2nd 7, 3rd 5, 4th 3, 5th to 8th 2, anything else 1.
func PointsForPosition(position int) int {
	switch {
	case position == 1:
		return 10
	case position == 2:
		return 7
	case position == 3:
		return 5
	case position == 4:
		return 3
	case position >= 5 && position <= 8:
		return 2
	default:
		return 1
	}
}
