package tetris

import (
	"errors"
	"fmt"
)

// ErrUnknownPieceType は定義されていないテトリミノ種別が指定された場合のエラーです。
var ErrUnknownPieceType = errors.New("unknown piece type")

// PieceType はテトリミノの種類を表します。
type PieceType int

const (
	TypeI PieceType = iota // 0: I-ミノ (シアン)
	TypeO                  // 1: O-ミノ (黄色)
	TypeT                  // 2: T-ミノ (紫)
	TypeS                  // 3: S-ミノ (緑)
	TypeZ                  // 4: Z-ミノ (赤)
	TypeJ                  // 5: J-ミノ (青)
	TypeL                  // 6: L-ミノ (オレンジ)
)

// Bag はスポーン時に抽選される7種類のテトリミノです。
// 抽選は毎回独立した一様乱数で行われ、7-bag方式の重複防止は行いません。
var Bag = [7]PieceType{TypeI, TypeO, TypeT, TypeS, TypeZ, TypeJ, TypeL}

// Shape はテトリミノの形状を表すブール行列です。Shape[row][col] でアクセスします。
type Shape [][]bool

// canonicalShapes は各PieceTypeの初期回転状態の行列です。
// スポーン時には必ずディープコピーしてから使うため、回転で書き換わることはありません。
var canonicalShapes = map[PieceType]Shape{
	TypeI: {
		{false, false, false, false},
		{true, true, true, true},
		{false, false, false, false},
		{false, false, false, false},
	},
	TypeO: {
		{true, true},
		{true, true},
	},
	TypeT: {
		{false, true, false},
		{true, true, true},
		{false, false, false},
	},
	TypeS: {
		{false, true, true},
		{true, true, false},
		{false, false, false},
	},
	TypeZ: {
		{true, true, false},
		{false, true, true},
		{false, false, false},
	},
	TypeJ: {
		{true, false, false},
		{true, true, true},
		{false, false, false},
	},
	TypeL: {
		{false, false, true},
		{true, true, true},
		{false, false, false},
	},
}

// String はPieceTypeを文字列表現 ("I", "O", ...) に変換します。
func (t PieceType) String() string {
	switch t {
	case TypeI:
		return "I"
	case TypeO:
		return "O"
	case TypeT:
		return "T"
	case TypeS:
		return "S"
	case TypeZ:
		return "Z"
	case TypeJ:
		return "J"
	case TypeL:
		return "L"
	default:
		return fmt.Sprintf("PieceType(%d)", int(t))
	}
}

// MaxShapeWidth は初期形状の中で最も広い列数 (I-ミノの4) を返します。
// これより狭いボードではスポーン位置がボード外になります。
func MaxShapeWidth() int {
	w := 0
	for _, s := range canonicalShapes {
		w = max(w, s.Width())
	}
	return w
}

// CanonicalShape は指定した種類の初期形状のコピーを返します。
func CanonicalShape(t PieceType) (Shape, error) {
	s, ok := canonicalShapes[t]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPieceType, int(t))
	}
	return s.Clone(), nil
}

// Clone はShapeのディープコピーを返します。
func (s Shape) Clone() Shape {
	out := make(Shape, len(s))
	for r, row := range s {
		out[r] = append([]bool(nil), row...)
	}
	return out
}

// Width は行列の列数を返します。
func (s Shape) Width() int {
	if len(s) == 0 {
		return 0
	}
	return len(s[0])
}

// Height は行列の行数を返します。
func (s Shape) Height() int {
	return len(s)
}

// Equal は2つの形状が同じ寸法・同じ内容であるかを返します。
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for r := range s {
		if len(s[r]) != len(o[r]) {
			return false
		}
		for c := range s[r] {
			if s[r][c] != o[r][c] {
				return false
			}
		}
	}
	return true
}

// Piece はテトリミノの現在の状態（種類、形状、ボード上の左上セルの座標）を表します。
// Yはボード上部から進入中の間は負の値を取り得ます。
type Piece struct {
	Type  PieceType `json:"type"`  // テトリミノの種類
	Shape Shape     `json:"shape"` // 現在の回転状態の形状
	X     int       `json:"x"`     // ボード上のX座標
	Y     int       `json:"y"`     // ボード上のY座標
}

// NewPiece は指定した種類のピースをスポーン位置に生成します。
// 形状は正準行列のディープコピーで、Xは水平中央、Yは-1です。
//
// Parameters:
//
//	t    : 生成するテトリミノの種類
//	cols : ボードの列数（水平中央の計算に使用）
//
// Returns:
//
//	*Piece: 生成されたピース
//	error : 不明な種類の場合は ErrUnknownPieceType
func NewPiece(t PieceType, cols int) (*Piece, error) {
	shape, err := CanonicalShape(t)
	if err != nil {
		return nil, err
	}
	return &Piece{
		Type:  t,
		Shape: shape,
		X:     (cols - shape.Width()) / 2,
		Y:     -1,
	}, nil
}

// RotateCW は時計回りに90度回転した新しい形状を返します。現在の形状は変更しません。
func (p *Piece) RotateCW() Shape {
	n, m := p.Shape.Height(), p.Shape.Width()
	result := make(Shape, m)
	for i := range result {
		result[i] = make([]bool, n)
	}
	for r := 0; r < n; r++ {
		for c := 0; c < m; c++ {
			result[c][n-1-r] = p.Shape[r][c]
		}
	}
	return result
}

// RotateCCW は反時計回りに90度回転した新しい形状を返します。現在の形状は変更しません。
func (p *Piece) RotateCCW() Shape {
	n, m := p.Shape.Height(), p.Shape.Width()
	result := make(Shape, m)
	for i := range result {
		result[i] = make([]bool, n)
	}
	for r := 0; r < n; r++ {
		for c := 0; c < m; c++ {
			result[m-1-c][r] = p.Shape[r][c]
		}
	}
	return result
}

// Blocks は形状中の埋まっているセルのボード上の絶対座標を返します。
func (p *Piece) Blocks() [][2]int {
	blocks := make([][2]int, 0, 4)
	for r, row := range p.Shape {
		for c, filled := range row {
			if filled {
				blocks = append(blocks, [2]int{p.X + c, p.Y + r})
			}
		}
	}
	return blocks
}

// Clone は現在のPieceオブジェクトのディープコピーを返します。
// 描画層へ渡すスナップショットがエンジン内部の形状を共有しないようにするために使います。
func (p *Piece) Clone() *Piece {
	if p == nil {
		return nil
	}
	newP := *p
	newP.Shape = p.Shape.Clone()
	return &newP
}
