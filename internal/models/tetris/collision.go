package tetris

// CollisionDetector は移動・回転の合法性を判定する唯一の権威です。
type CollisionDetector struct {
	grid *Grid
}

// NewCollisionDetector は指定したボードに対する衝突判定器を生成します。
func NewCollisionDetector(g *Grid) *CollisionDetector {
	return &CollisionDetector{grid: g}
}

// Check はピースを (dx, dy) だけ移動したときに、壁や既存のブロックと衝突するかどうかを判定します。
// alt が nil でない場合はピース自身の形状の代わりに alt を使います（回転候補の検査用）。
//
// Parameters:
//
//	p   : 衝突判定を行うテトリミノ
//	dx  : X軸方向の移動量
//	dy  : Y軸方向の移動量
//	alt : 代替形状（nil可）
//
// Returns:
//
//	bool: 衝突する場合はtrue、しない場合はfalse
func (d *CollisionDetector) Check(p *Piece, dx, dy int, alt Shape) bool {
	shape := p.Shape
	if alt != nil {
		shape = alt
	}
	for r, row := range shape {
		for c, filled := range row {
			if !filled {
				continue
			}
			nx := p.X + c + dx
			ny := p.Y + r + dy
			if !d.grid.IsInside(nx, ny) {
				return true
			}
			if d.grid.IsOccupied(nx, ny) {
				return true
			}
		}
	}
	return false
}
