package ai

const (
	systemPromptEN = "You are MedicoThink, an advanced AI medical assistant. Provide helpful, accurate medical information in English while always recommending users consult healthcare professionals for serious concerns. Be helpful, understanding, and professional in your responses."
	systemPromptAR = "أنت MedicoThink، مساعد ذكي طبي متقدم. قدم معلومات طبية مفيدة ودقيقة باللغة العربية مع التأكيد دائماً على ضرورة استشارة المختصين الطبيين للحالات الجدية. كن مفيداً ومتفهماً ومهنياً في ردودك."

	visionSuffix     = " You specialize in medical image analysis."
	flashcardsSuffix = " You are specialized in creating educational medical flashcards."

	apologyChatEN = "Sorry, I'm experiencing technical difficulties. Please try again later."
	apologyChatAR = "عذراً، أواجه صعوبة تقنية حالياً. يرجى المحاولة مرة أخرى لاحقاً."

	apologyVisionEN = "Sorry, I cannot analyze this image at the moment. Please try again later."
	apologyVisionAR = "عذراً، لا يمكنني تحليل هذه الصورة حالياً. يرجى المحاولة مرة أخرى لاحقاً."
)

// SystemPrompt returns the assistant persona in the language of the
// user's message.
func SystemPrompt(text string) string {
	if IsArabic(text) {
		return systemPromptAR
	}
	return systemPromptEN
}

func chatApology(text string) string {
	if IsArabic(text) {
		return apologyChatAR
	}
	return apologyChatEN
}

func visionApology(text string) string {
	if IsArabic(text) {
		return apologyVisionAR
	}
	return apologyVisionEN
}
