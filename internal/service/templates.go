package service

// User-visible message templates. Submitters only ever see the scope
// rejection, the acceptance acknowledgment, the final answer, or the
// rejection template; everything else goes to reviewers.

const (
	msgScopeRejection = "I only handle questions about health. Please ask about healthy habits, symptoms, or general medical topics."

	msgAccepted = "✅ Your question was accepted for moderation. You will receive an answer within 12 hours."

	msgGenerationFailed = "⚠️ Something went wrong while processing your question. Please try again later."

	msgRejected = "❌ Unfortunately, we cannot answer this question. Please see a doctor for individual advice."

	msgReviewerHint = "🤖 You are a reviewer. Use the moderation buttons to work with questions."

	msgDuplicateAction = "⏳ This action is already being processed..."

	msgAlreadyHandled = "❌ Request not found or already handled"

	answerGreeting = "Hello!"

	answerDisclaimer = "⚠️ This answer was prepared by an AI and verified by a medical professional. It does not replace an in-person consultation with a doctor."

	welcomeSubmitter = `👋 Welcome to the health assistant!

Ask your health question and our AI assistant, together with a medical reviewer, will prepare an answer for you.

⚠️ Important:
• This is informational support, not a substitute for a doctor
• Do not use the answers for self-treatment
• See a doctor for serious symptoms
• Every answer is verified by a medical reviewer
• Response time: up to 12 hours

📝 Just type your health question and we will help!`

	welcomeReviewer = `👨‍⚕️ Welcome, reviewer!

You are in the moderation panel of the health assistant.

📋 What you can do:
• Receive notifications about new questions automatically
• Check and edit AI-drafted answers
• Approve or reject answers

⚡ For every new question you get the question and a draft answer. You can:
✅ Publish ✏️ Edit 🔄 Regenerate ❌ Reject

⏳ Moderation window: up to 12 hours`
)

// ComposeFinalAnswer applies the greeting and disclaimer transform to the
// effective draft text before it is released to the submitter.
func ComposeFinalAnswer(text string) string {
	return answerGreeting + "\n\n" + text + "\n\n" + answerDisclaimer
}
