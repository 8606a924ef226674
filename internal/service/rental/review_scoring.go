package rental

import (
	stderrors "errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/joyrent/game-rental-backend/internal/models"
	"github.com/joyrent/game-rental-backend/pkg/sentiment"
)

// aiScorePlaces aiScore 保留的小数位
const aiScorePlaces = 4

// reviewScoring 分析结果落到评价记录上的部分
type reviewScoring struct {
	judge   int8
	emotion models.JSON
	score   decimal.Decimal
	dims    map[string]int8
}

// degradedScoring 分析服务不可用时的默认值：正常、未提及、0 分
func degradedScoring() *reviewScoring {
	dims := make(map[string]int8, len(models.Dimensions))
	for _, name := range models.Dimensions {
		dims[name] = models.DimAbsent
	}
	return &reviewScoring{
		judge: models.AIJudgeNormal,
		score: decimal.Zero,
		dims:  dims,
	}
}

// errScoreOutOfRange 分析服务返回的置信度不在 [0,1] 内
var errScoreOutOfRange = stderrors.New("sentiment: confidence out of [0,1]")

var scoreMax = decimal.NewFromInt(1)

// scoreResult 将正常结论转换为维度取值与平均置信度
// 只统计已知维度；置信度为带 score 的维度的算术平均，四舍五入到 4 位
// 任一置信度越界时返回 errScoreOutOfRange，调用方按降级处理
func scoreResult(res *sentiment.Result) (*reviewScoring, error) {
	scoring := degradedScoring()
	if res == nil || len(res.Dimensions) == 0 {
		return scoring, nil
	}

	emotion := make(models.JSON, len(models.Dimensions))
	sum := decimal.Zero
	var n int64
	for _, name := range models.Dimensions {
		dim, ok := res.Dimensions[name]
		if !ok {
			continue
		}
		scoring.dims[name] = int8(sentiment.ParseLabel(dim.Label))
		emotion[name] = map[string]interface{}{
			"label": dim.Label,
			"score": dim.Score,
		}
		if dim.Score == "" {
			continue
		}
		v, err := decimal.NewFromString(dim.Score)
		if err != nil {
			continue
		}
		if v.IsNegative() || v.GreaterThan(scoreMax) {
			return nil, fmt.Errorf("%w: %s=%s", errScoreOutOfRange, name, dim.Score)
		}
		sum = sum.Add(v)
		n++
	}
	if len(emotion) > 0 {
		scoring.emotion = emotion
	}
	if n > 0 {
		scoring.score = sum.Div(decimal.NewFromInt(n)).Round(aiScorePlaces)
	}
	return scoring, nil
}

func (s *reviewScoring) apply(review *models.Review) {
	review.AIJudge = s.judge
	review.AIEmotion = s.emotion
	review.AIScore = s.score
	review.ResetDimensions()
	for name, v := range s.dims {
		review.SetDimension(name, v)
	}
}
