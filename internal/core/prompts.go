package core

import "fmt"

// SupportedLanguages are the language codes the AI-backed features accept.
// Anything else falls back to English.
var SupportedLanguages = map[string]string{
	"en": "English",
	"ta": "Tamil (தமிழ்)",
	"hi": "Hindi (हिंदी)",
	"te": "Telugu (తెలుగు)",
	"kn": "Kannada (ಕನ್ನಡ)",
	"ml": "Malayalam (മലയാളം)",
}

// translationLanguageNames covers the wider set the translator understands.
var translationLanguageNames = map[string]string{
	"en": "English",
	"hi": "Hindi (हिंदी)",
	"ta": "Tamil (தமிழ்)",
	"te": "Telugu (తెలుగు)",
	"kn": "Kannada (ಕನ್ನಡ)",
	"ml": "Malayalam (മലയാളം)",
	"gu": "Gujarati (ગુજરાતી)",
	"mr": "Marathi (मराठी)",
	"bn": "Bengali (বাংলা)",
	"pa": "Punjabi (ਪੰਜਾਬੀ)",
}

// NormalizeLanguage maps an arbitrary code onto the supported set.
func NormalizeLanguage(code string) string {
	if _, ok := SupportedLanguages[code]; ok {
		return code
	}
	return "en"
}

func responseLanguageDirective(language string) string {
	if language == "en" {
		return "Provide all responses in English."
	}
	name := SupportedLanguages[language]
	return fmt.Sprintf("Provide all responses in %s. Do not answer in English.", name)
}

func detectionPrompt(language string) string {
	return fmt.Sprintf(`You are an expert plant pathologist and agricultural specialist. Analyze this plant image for diseases, pests, or health issues. %s

Please provide a detailed analysis in the following JSON format:
{
  "disease": "Name of the disease or 'Healthy Plant' if no issues",
  "confidence": 0.85,
  "severity": "Low|Medium|High",
  "treatment": "Specific treatment recommendations",
  "description": "Detailed description of the condition",
  "prevention": "Prevention strategies",
  "plantType": "Type of plant if identifiable",
  "affectedParts": ["leaves", "stems", "roots"],
  "symptoms": ["yellowing", "spots", "wilting"]
}

Focus on:
1. Identifying the plant type if possible
2. Detecting any diseases, fungal infections, bacterial issues, or pest damage
3. Assessing the severity and spread
4. Providing specific, actionable treatment recommendations
5. Suggesting prevention measures

The "confidence" and "severity" fields must stay in English exactly as shown. Be precise and scientific in your analysis. If the plant appears healthy, indicate that clearly.`, responseLanguageDirective(language))
}

const chatPersonaEN = `You are an expert plant care and agricultural advisor. Respond to questions about plant diseases, treatments, growing methods, soil care, fertilizers, pest control, and general plant care. Your responses should be practical, science-based, and helpful for farmers and gardeners.

**Markdown Formatting Guidelines:**
- Use # or ## for main headings and subheadings
- Make important terms and titles **bold**
- Use bullet points (-) or numbered lists (1.) for steps and tips
- Leave blank lines between paragraphs for better spacing`

const chatPersonaTA = `நீங்கள் ஒரு நிபுணத்துவம் வாய்ந்த தாவர பராமரிப்பு மற்றும் வேளாண்மை ஆலோசகர். தாவர நோய்கள், சிகிச்சை, வளர்ப்பு முறைகள், மண் பராமரிப்பு, உரம், பூச்சி கட்டுப்பாடு மற்றும் பொதுவான தாவர பராமரிப்பு பற்றிய கேள்விகளுக்கு தமிழில் பதிலளிக்கவும். உங்கள் பதில்கள் நடைமுறை, அறிவியல் அடிப்படையிலான மற்றும் விவசாயிகள் மற்றும் தோட்டக்காரர்களுக்கு பயனுள்ளதாக இருக்க வேண்டும்.

**மார்க்டவுன் வடிவமைப்பு வழிகாட்டுதல்கள்:**
- முக்கிய தலைப்புகளுக்கு # அல்லது ## பயன்படுத்தவும்
- முக்கியமான சொற்களை **bold** ஆக்கவும்
- பட்டியல்களுக்கு - அல்லது 1. பயன்படுத்தவும்`

func chatSystemPrompt(language string) string {
	switch language {
	case "ta":
		return chatPersonaTA
	case "en":
		return chatPersonaEN
	default:
		return chatPersonaEN + "\n\n" + responseLanguageDirective(language)
	}
}

const chatFallbackEN = `## 🌱 Plant Care Assistant

I'm currently experiencing some technical difficulties with the AI service, but I'm here to help with your plant care questions!

**Common Plant Care Topics I Can Help With:**
- **Plant Disease Identification** - Describe symptoms and I'll suggest treatments
- **Watering & Nutrition** - Proper watering schedules and fertilizer recommendations
- **Pest Control** - Natural and chemical pest management solutions
- **Soil Health** - pH testing, soil amendments, and organic matter

**Please try asking your question again, or contact our support team if the issue persists.**

*Tip: Be specific about your plant type, symptoms, and growing conditions for the best advice!*`

const chatFallbackTA = `## 🌱 தாவர பராமரிப்பு உதவியாளர்

தற்போது AI சேவையில் சில தொழில்நுட்ப சிக்கல்கள் உள்ளன, ஆனால் உங்கள் தாவர பராமரிப்பு கேள்விகளுக்கு நான் உதவ இங்கே இருக்கிறேன்!

**நான் உதவக்கூடிய பொதுவான தாவர பராமரிப்பு தலைப்புகள்:**
- **தாவர நோய் கண்டறிதல்** - அறிகுறிகளை விவரிக்கவும், நான் சிகிச்சைகளை பரிந்துரைப்பேன்
- **நீர்ப்பாசனம் & ஊட்டச்சத்து** - சரியான நீர்ப்பாசன அட்டவணைகள் மற்றும் உர பரிந்துரைகள்
- **பூச்சி கட்டுப்பாடு** - இயற்கை மற்றும் இரசாயன பூச்சி மேலாண்மை தீர்வுகள்

**தயவுசெய்து உங்கள் கேள்வியை மீண்டும் கேட்கவும், அல்லது சிக்கல் தொடர்ந்தால் எங்கள் ஆதரவு குழுவை தொடர்பு கொள்ளவும்.**`

// chatFallbackBody is the static reply used when the AI provider is
// unavailable. Chat must always produce some assistant reply.
func chatFallbackBody(language string) string {
	if language == "ta" {
		return chatFallbackTA
	}
	return chatFallbackEN
}
