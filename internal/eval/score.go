package eval

// 分数约定：正值对“该走的一方”有利
const (
	// WinScore 终局胜利；实际返回 WinScore-ply，越快越好
	WinScore int32 = 1 << 20
	// MaxPly 一局最多 16 步
	MaxPly = 16
	// WinThreshold 超过它的分数都是已证明的胜负
	WinThreshold = WinScore - 64

	Draw int32 = 0
)

// IsProven 是否为终局推导出的分数而不是启发式估计
func IsProven(score int32) bool {
	return score >= WinThreshold || score <= -WinThreshold
}
