// Package cardstack 计算卡片堆叠的可见窗口、每层的位移/缩放/透明度以及滑动结果。
//
// 下标 0 为最上层卡片，数值越大越靠后。
package cardstack

import (
	"fmt"
	"math"
	"strings"
)

type StackFrom int

const (
	StackNone StackFrom = iota
	StackTop
	StackBottom
	StackLeft
	StackRight
)

var stackFromNames = map[StackFrom]string{
	StackNone:   "none",
	StackTop:    "top",
	StackBottom: "bottom",
	StackLeft:   "left",
	StackRight:  "right",
}

func (s StackFrom) String() string {
	if name, ok := stackFromNames[s]; ok {
		return name
	}
	return fmt.Sprintf("StackFrom(%d)", int(s))
}

func ParseStackFrom(s string) (StackFrom, error) {
	for k, v := range stackFromNames {
		if strings.EqualFold(s, v) {
			return k, nil
		}
	}
	return StackNone, fmt.Errorf("unknown stack direction %q", s)
}

func (s StackFrom) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// DragValue 卡片最终停靠的位置
type DragValue int

const (
	DragCenter DragValue = iota
	DragLeft
	DragRight
)

func (d DragValue) String() string {
	switch d {
	case DragLeft:
		return "left"
	case DragRight:
		return "right"
	default:
		return "center"
	}
}

func (d DragValue) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// 拖拽锚点与视觉常量
const (
	AnchorDistance    = 1000.0
	VelocityThreshold = 400.0
	AlphaInterval     = 0.2
	MaxRotation       = 20.0
	RotationDivisor   = 20.0
	OverlayMinOffset  = 100.0
	OverlayDivisor    = 500.0
	OverlayMaxAlpha   = 0.7
)

type Options struct {
	VisibleCount        int
	TranslationInterval float64
	ScaleInterval       float64
	SwipeThreshold      float64
	StackFrom           StackFrom
	InfiniteLoop        bool
}

func DefaultOptions() Options {
	return Options{
		VisibleCount:        3,
		TranslationInterval: 8,
		ScaleInterval:       0.95,
		SwipeThreshold:      0.3,
		StackFrom:           StackTop,
	}
}

// VisibleIndices 返回从 top 开始最多 count 张卡片在列表中的下标。
// 无限模式下按 n 取模循环，有限模式下超出列表的部分被丢弃。
func VisibleIndices(n, top, count int, infinite bool) []int {
	if n <= 0 || count <= 0 || top < 0 {
		return nil
	}
	out := make([]int, 0, count)
	for offset := 0; offset < count; offset++ {
		idx := top + offset
		if infinite {
			idx %= n
		} else if idx >= n {
			break
		}
		out = append(out, idx)
	}
	return out
}

type Layer struct {
	Index        int     `json:"index"`
	TranslationX float64 `json:"translationX"`
	TranslationY float64 `json:"translationY"`
	Scale        float64 `json:"scale"`
	Alpha        float64 `json:"alpha"`
	Interactive  bool    `json:"interactive"`
}

// Transform 计算第 index 层的静态外观
func Transform(index int, opts Options) Layer {
	l := Layer{Index: index, Scale: 1, Alpha: 1, Interactive: index == 0}
	step := float64(index) * opts.TranslationInterval

	switch opts.StackFrom {
	case StackTop:
		l.TranslationY = -step
	case StackBottom:
		l.TranslationY = step
	case StackLeft:
		l.TranslationX = step
	case StackRight:
		l.TranslationX = -step
	}

	if opts.StackFrom != StackNone {
		l.Scale = 1 - float64(index)*(1-opts.ScaleInterval)
		l.Alpha = 1 - float64(index)*AlphaInterval
	}
	return l
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Rotation 拖拽时的旋转角度（度）
func Rotation(offset float64) float64 {
	return clamp(offset/RotationDivisor, -MaxRotation, MaxRotation)
}

type Overlay struct {
	Visible bool      `json:"visible"`
	Alpha   float64   `json:"alpha"`
	Side    DragValue `json:"side"`
}

// OverlayFor 拖拽超过阈值后显示喜欢/不喜欢的覆盖层，正向为喜欢
func OverlayFor(offset float64) Overlay {
	o := Overlay{
		Visible: math.Abs(offset) > OverlayMinOffset,
		Alpha:   clamp(math.Abs(offset)/OverlayDivisor, 0, OverlayMaxAlpha),
		Side:    DragLeft,
	}
	if offset > 0 {
		o.Side = DragRight
	}
	return o
}

// Settle 根据松手时的位移与速度决定停靠位置
func Settle(offset, velocity float64, opts Options) DragValue {
	threshold := opts.SwipeThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultOptions().SwipeThreshold
	}

	switch {
	case velocity >= VelocityThreshold && offset >= 0:
		return DragRight
	case velocity <= -VelocityThreshold && offset <= 0:
		return DragLeft
	case offset >= AnchorDistance*threshold:
		return DragRight
	case offset <= -AnchorDistance*threshold:
		return DragLeft
	}
	return DragCenter
}
