package entity

// CheckResult is the uniform outcome of every pre-flight check and price
// validator. RetryRecommended signals a transient condition (in-flight bridge
// transfer, API hiccup) where re-running later may succeed; false signals a
// structural condition where retrying is pointless.
type CheckResult struct {
	Passed           bool
	Message          string
	RetryRecommended bool
}

// Pass builds a passing result.
func Pass(message string) CheckResult {
	return CheckResult{Passed: true, Message: message}
}

// Fail builds a failing result with the given retry recommendation.
func Fail(message string, retryRecommended bool) CheckResult {
	return CheckResult{Passed: false, Message: message, RetryRecommended: retryRecommended}
}
