package arcade

import (
	"context"
	"time"
)

// FrameFunc はフレームごとに呼ばれる描画・HUD更新用のコールバックです。
// events にはそのフレームで発生したイベントが入ります。
type FrameFunc func(g Game, events []Event)

// Loop は呼び出し側が所有するフレームループです。
// frame ごとに前回フレームからの経過時間で Tick を呼び、input から届いた入力を即座に適用します。
// 経過時間の基準はフレームごとに更新されるため、一時停止から再開しても追いつき分の連続落下は発生しません。
// ctx がキャンセルされるか input が閉じられると終了します。
func Loop(ctx context.Context, g Game, frame time.Duration, input <-chan Action, onFrame FrameFunc) error {
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case a, ok := <-input:
			if !ok {
				return nil
			}
			before := g.Status()
			g.HandleInput(a)
			if before != StatusPlaying && g.Status() == StatusPlaying {
				last = time.Now()
			}
			if onFrame != nil {
				onFrame(g, g.DrainEvents())
			}

		case now := <-ticker.C:
			if g.Status() == StatusPlaying {
				g.Tick(now.Sub(last))
			}
			last = now
			if onFrame != nil {
				onFrame(g, g.DrainEvents())
			}
		}
	}
}
