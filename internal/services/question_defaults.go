package services

import "github.com/visaprep-ai/backend/internal/models"

// Built-in question lists, used to seed an empty question bank and as the
// deterministic fallback when the bank is unreachable or short.
var defaultQuestions = map[models.VisaType][]string{
	models.VisaTourist: {
		"What is the purpose of your trip to the United States?",
		"How long are you planning to stay in the US?",
		"What places do you plan to visit during your trip?",
		"What is your occupation in your home country?",
		"How will you finance your trip to the US?",
		"Do you have any family members or friends in the United States?",
		"Have you visited the United States before?",
		"What ties do you have to your home country that ensure you will return?",
		"How much money are you bringing for your trip?",
		"Have you purchased your return ticket?",
		"Where will you be staying during your visit?",
		"Are you traveling alone or with family?",
		"Do you have travel medical insurance for your trip?",
		"What is your monthly income in your home country?",
		"Have you ever been denied a visa to any country before?",
	},
	models.VisaStudent: {
		"Which university have you been accepted to in the United States?",
		"What program or major will you be studying?",
		"Why did you choose this particular institution?",
		"How does this program align with your career goals?",
		"How will you finance your education in the US?",
		"Do you have any scholarships or financial aid?",
		"What are your plans after completing your studies?",
		"Do you intend to return to your home country after graduation?",
		"Have you ever studied in the US before?",
		"What is your academic background?",
		"How good is your English proficiency?",
		"Where will you be staying during your studies?",
		"Do you have any relatives currently in the United States?",
		"How much is your total tuition and living expenses for one year?",
		"How will this degree benefit your career in your home country?",
	},
}

// DefaultQuestions returns up to n built-in questions for the visa type.
func DefaultQuestions(visaType models.VisaType, n int) []string {
	all := defaultQuestions[visaType]
	if n <= 0 || n > len(all) {
		n = len(all)
	}
	out := make([]string, n)
	copy(out, all[:n])
	return out
}
