package embedding

import "golang.org/x/crypto/blake2b"

// FallbackDimensions 是本地哈希向量的固定维度。
const FallbackDimensions = 64

// Fallback 把文本的 512 位 BLAKE2b 摘要逐字节映射到 [-1, 1)，不依赖网络，相同文本得到相同向量。
func Fallback(text string) []float32 {
	sum := blake2b.Sum512([]byte(text))
	vec := make([]float32, FallbackDimensions)
	for i := 0; i < FallbackDimensions; i++ {
		vec[i] = (float32(sum[i]) - 128) / 128
	}
	return vec
}

// MeanPool 对多行向量逐维求平均，维度以第一行为准。
func MeanPool(rows [][]float32) []float32 {
	if len(rows) == 0 {
		return []float32{}
	}
	dim := len(rows[0])
	sum := make([]float32, dim)
	for _, row := range rows {
		for i := 0; i < dim && i < len(row); i++ {
			sum[i] += row[i]
		}
	}
	for i := range sum {
		sum[i] /= float32(len(rows))
	}
	return sum
}
