// Package prompts assembles the system and user prompts sent to the model.
package prompts

import (
	"encoding/json"
	"fmt"

	"quiz-scoring/internal/models"
)

const systemScoring = `You are a rigorous assessment expert. I will give you an app's information
followed by the questions and the answers a user chose:

App name,
App description,
Questions and user answers as JSON: [{"title": "question", "userAnswer": "answer"}]

Assess the user from these answers:
1. Give a short, clear result name (for example a personality type) in resultName, at most 10 characters.
2. Give a detailed description of the result in resultDesc, at least 200 characters.
3. Reply with exactly this JSON object and nothing else:
{"resultName": "result name", "resultDesc": "result description"}`

const systemQuestion = `You are a rigorous question writer. I will give you:

App name,
App description,
App type (score-based or trait-based),
Number of questions to write,
Number of options per question

Write the questions:
1. Each question must relate to the app description, with short, distinct options.
2. Option keys are capital letters starting from A.
3. For trait-based apps every option carries a "result" trait tag (for example I or E).
   For score-based apps every option carries an integer "score".
4. Reply with one JSON array and nothing else:
[{"title": "question", "options": [{"key": "A", "value": "option text", "result": "I"}]}]`

// SystemScoring is the system prompt for model-assisted scoring.
func SystemScoring() string { return systemScoring }

// SystemQuestion is the system prompt for question generation.
func SystemQuestion() string { return systemQuestion }

// UserScoring renders the scoring input for app and the resolved answers.
func UserScoring(app *models.Application, answers []models.QuestionAnswer) (string, error) {
	if answers == nil {
		answers = []models.QuestionAnswer{}
	}
	payload, err := json.Marshal(answers)
	if err != nil {
		return "", fmt.Errorf("marshal answers: %w", err)
	}
	return fmt.Sprintf("%s,\n%s,\n%s", app.AppName, app.AppDesc, payload), nil
}

// UserQuestion renders the generation input. An unset app type falls back to score-based.
func UserQuestion(app *models.Application, questionCount, optionCount int) string {
	return fmt.Sprintf("%s,\n%s,\n%s,\n%d,\n%d",
		app.AppName, app.AppDesc, app.AppType.Label(), questionCount, optionCount)
}
