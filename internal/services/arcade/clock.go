package arcade

import "time"

// Clock は固定タイムステップの時間蓄積器です。
// 一時停止中は Advance を呼ばないことで、蓄積済みの時間を失わずに凍結します。
type Clock struct {
	acc time.Duration
}

// Advance は dt を蓄積し、蓄積量が interval() 以上である間 step を実行して間隔分を差し引きます。
// interval はステップごとに再評価されるため、レベルアップ直後のステップから新しい間隔が適用されます。
// step が false を返した場合（ゲームオーバー等）はその時点で打ち切ります。
//
// Returns:
//
//	int: 実行したステップ数
func (c *Clock) Advance(dt time.Duration, interval func() time.Duration, step func() bool) int {
	if dt > 0 {
		c.acc += dt
	}
	steps := 0
	for {
		iv := interval()
		if iv <= 0 || c.acc < iv {
			return steps
		}
		c.acc -= iv
		steps++
		if !step() {
			return steps
		}
	}
}

// Pending は現在蓄積されている時間を返します。
func (c *Clock) Pending() time.Duration {
	return c.acc
}

// Reset は蓄積時間をゼロに戻します。
func (c *Clock) Reset() {
	c.acc = 0
}
