package service

import (
	"context"
	"time"
)

// ==================== 打字机输出 ====================

// DefaultTypingInterval 默认每次揭示之间的间隔
const DefaultTypingInterval = 20 * time.Millisecond

// DefaultTypingChunk 默认每次揭示的字符（rune）数量
const DefaultTypingChunk = 1

// TypingEvent 打字机的单条输出事件
// Done 为 true 时表示完整文本已全部揭示，是一条独立的终止事件
type TypingEvent struct {
	Content string `json:"content"`         // 已揭示的前缀
	Delta   string `json:"delta,omitempty"` // 本次新增的片段
	Done    bool   `json:"done"`            // 是否为终止事件
}

// Typewriter 将完整回复按固定节奏逐段揭示
// 用于模拟真人打字的前端体验
type Typewriter struct {
	interval time.Duration
	chunk    int
}

// NewTypewriter 创建打字机
//
// 参数:
//   - interval: 每次揭示之间的间隔，<=0 时使用默认值
//   - chunk: 每次揭示的字符数，<=0 时使用默认值
func NewTypewriter(interval time.Duration, chunk int) *Typewriter {
	if interval <= 0 {
		interval = DefaultTypingInterval
	}
	if chunk <= 0 {
		chunk = DefaultTypingChunk
	}
	return &Typewriter{interval: interval, chunk: chunk}
}

// Play 按节奏播放完整文本
// 每个间隔后发送一条揭示事件，全部揭示完后发送一条 Done 事件并关闭通道。
// ctx 取消后立即停止：不再发送任何揭示事件，也不发送 Done 事件。
// 按 rune 切分，多字节字符不会被截断。
//
// 参数:
//   - ctx: 取消控制
//   - fullText: 待播放的完整文本
//
// 返回:
//   - <-chan TypingEvent: 事件通道，播放结束或取消后关闭
func (t *Typewriter) Play(ctx context.Context, fullText string) <-chan TypingEvent {
	events := make(chan TypingEvent)

	go func() {
		defer close(events)

		runes := []rune(fullText)
		for pos := 0; pos < len(runes); {
			// 取消时不再等待下一个间隔
			select {
			case <-ctx.Done():
				return
			default:
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(t.interval):
			}

			next := pos + t.chunk
			if next > len(runes) {
				next = len(runes)
			}
			event := TypingEvent{
				Content: string(runes[:next]),
				Delta:   string(runes[pos:next]),
			}
			pos = next

			select {
			case <-ctx.Done():
				return
			case events <- event:
			}
		}

		select {
		case <-ctx.Done():
		case events <- TypingEvent{Content: fullText, Done: true}:
		}
	}()

	return events
}
