package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"finplan/config"

	"github.com/sashabaranov/go-openai"
)

// ErrAIDisabled 未启用 AI 总结
var ErrAIDisabled = errors.New("resumo por IA desativado")

// AIService 调用 OpenAI 兼容接口生成月度总结
type AIService struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewAIService 根据配置创建 AI 服务；未启用时返回 ErrAIDisabled
func NewAIService(cfg config.AIConfig) (*AIService, error) {
	if !cfg.Enabled {
		return nil, ErrAIDisabled
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &AIService{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   model,
		timeout: timeout,
	}, nil
}

// Model 使用的模型名
func (s *AIService) Model() string {
	return s.model
}

// Summarize 发送提示词并返回模型回复
func (s *AIService) Summarize(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "Você é um consultor financeiro pessoal. Responda em português do Brasil."},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("falha ao chamar o modelo: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("o modelo não retornou resposta")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// BuildSummaryPrompt 用当月数据构建提示词；budgets 与 rules 可为空
func BuildSummaryPrompt(month *MonthSummary, budgets *CategoryBudgetSummary, rules *IncomeRuleSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analise minhas finanças de %02d/%d e dê um resumo com recomendações práticas.\n\n", month.Month, month.Year)
	fmt.Fprintf(&b, "Receitas: %s\n", FormatBRL(month.TotalIncome))
	fmt.Fprintf(&b, "Despesas: %s\n", FormatBRL(month.TotalExpense))
	fmt.Fprintf(&b, "Saldo: %s\n", FormatBRL(month.Balance))

	if len(month.ExpenseByCategory) > 0 {
		b.WriteString("\nDespesas por categoria:\n")
		for _, c := range month.ExpenseByCategory {
			fmt.Fprintf(&b, "- %s: %s (%s, %d lançamentos)\n", c.Name, FormatBRL(c.Total), FormatPercent(c.Percentage), c.Count)
		}
	}

	if budgets != nil && len(budgets.Budgets) > 0 {
		b.WriteString("\nOrçamentos por categoria:\n")
		for _, v := range budgets.Budgets {
			fmt.Fprintf(&b, "- %s: orçado %s, gasto %s (%s)\n",
				v.CategoryName, FormatBRL(v.Budget), FormatBRL(v.Spent), FormatPercent(v.Percentage))
		}
	}

	if rules != nil && len(rules.Rules) > 0 {
		fmt.Fprintf(&b, "\nDistribuição da renda (renda base %s):\n", FormatBRL(rules.BaseIncome))
		for _, r := range rules.Rules {
			status := "dentro do limite"
			if r.IsOverBudget {
				status = "acima do limite"
			}
			fmt.Fprintf(&b, "- %s (%s): previsto %s, gasto %s, %s\n",
				r.Name, FormatPercent(r.Percentage), FormatBRL(r.BudgetAmount), FormatBRL(r.Spent), status)
		}
	}

	b.WriteString("\nInclua:\n1. Visão geral do mês\n2. Categorias que mais pesaram\n3. Cumprimento dos orçamentos e da distribuição da renda\n4. Sugestões para o próximo mês\n")
	return b.String()
}
