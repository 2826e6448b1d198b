package email

import "fmt"

// Простые inline-шаблоны уведомлений. Письма информационные,
// их доставка не влияет на результат операции.

func WithdrawalProcessedSubject() string {
	return "Your withdrawal request has been processed"
}

func WithdrawalProcessedBody(name, status string, netAmount int, cashValue float64) string {
	return fmt.Sprintf(
		"<p>Hi %s,</p><p>Your withdrawal request was <b>%s</b>.</p>"+
			"<p>Net amount: %d points ($%.2f).</p>",
		name, status, netAmount, cashValue,
	)
}

func MonthlyAllocationSubject() string {
	return "Your monthly points have arrived"
}

func MonthlyAllocationBody(name string, points int) string {
	return fmt.Sprintf(
		"<p>Hi %s,</p><p>We credited <b>%d points</b> to your balance for this month.</p>",
		name, points,
	)
}
