package snake

// BoardWidth と BoardHeight は標準のボードサイズです。
const (
	BoardWidth  = 21
	BoardHeight = 21
)

// Point はボード上のマス目の座標です。
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Direction は1ステップあたりの移動量です。
type Direction struct {
	X int `json:"x"`
	Y int `json:"y"`
}

var (
	Up    = Direction{X: 0, Y: -1}
	Down  = Direction{X: 0, Y: 1}
	Left  = Direction{X: -1, Y: 0}
	Right = Direction{X: 1, Y: 0}
)

// Reverse は逆方向を返します。
func (d Direction) Reverse() Direction {
	return Direction{X: -d.X, Y: -d.Y}
}

// Snake はヘビの胴体です。Segments[0] が頭です。
type Snake struct {
	Segments      []Point   `json:"segments"`
	Direction     Direction `json:"direction"`
	NextDirection Direction `json:"-"`
}

// NewSnake は (x, y) を頭として右向きに3マスの長さのヘビを生成します。
func NewSnake(x, y int) *Snake {
	return &Snake{
		Segments:      []Point{{x, y}, {x - 1, y}, {x - 2, y}},
		Direction:     Right,
		NextDirection: Right,
	}
}

// Head は頭の座標を返します。
func (s *Snake) Head() Point {
	return s.Segments[0]
}

// SetDirection は次の移動方向を予約します。
// 現在の進行方向の真逆は受け付けず、falseを返します。
func (s *Snake) SetDirection(d Direction) bool {
	if d == s.Direction.Reverse() {
		return false
	}
	s.NextDirection = d
	return true
}

// Move は予約された方向を確定し、新しい頭を先頭に追加します。尻尾はまだ削除しません。
func (s *Snake) Move() {
	s.Direction = s.NextDirection
	head := s.Head()
	next := Point{X: head.X + s.Direction.X, Y: head.Y + s.Direction.Y}
	s.Segments = append([]Point{next}, s.Segments...)
}

// RemoveTail は尻尾を1マス削除します。
func (s *Snake) RemoveTail() {
	if len(s.Segments) > 0 {
		s.Segments = s.Segments[:len(s.Segments)-1]
	}
}

// HitsSelf は頭が胴体のいずれかと重なっているかどうかを判定します。
func (s *Snake) HitsSelf() bool {
	head := s.Head()
	for _, seg := range s.Segments[1:] {
		if seg == head {
			return true
		}
	}
	return false
}

// Contains は (x, y) がヘビの胴体に含まれるかどうかを判定します。
func (s *Snake) Contains(p Point) bool {
	for _, seg := range s.Segments {
		if seg == p {
			return true
		}
	}
	return false
}

// Clone はディープコピーを返します。
func (s *Snake) Clone() *Snake {
	if s == nil {
		return nil
	}
	c := *s
	c.Segments = append([]Point(nil), s.Segments...)
	return &c
}

// Board はボードの大きさと壁判定を持ちます。
type Board struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// IsInside は (x, y) がボード内にあるかどうかを判定します。
func (b Board) IsInside(p Point) bool {
	return p.X >= 0 && p.X < b.Cols && p.Y >= 0 && p.Y < b.Rows
}

// FreeCells はヘビに占有されていないマスを行優先で列挙します。
func (b Board) FreeCells(s *Snake) []Point {
	occupied := make(map[Point]struct{}, len(s.Segments))
	for _, seg := range s.Segments {
		occupied[seg] = struct{}{}
	}
	free := make([]Point, 0, b.Rows*b.Cols-len(occupied))
	for y := 0; y < b.Rows; y++ {
		for x := 0; x < b.Cols; x++ {
			p := Point{X: x, Y: y}
			if _, ok := occupied[p]; !ok {
				free = append(free, p)
			}
		}
	}
	return free
}
