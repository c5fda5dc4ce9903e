package provider

// DefaultMaxPromptChars 发送给提供商的文本前缀上限
// 提供商有输入长度限制且按输入计费，截断是刻意的成本控制而不是偷懒
const DefaultMaxPromptChars = 5000

// systemInstruction 提取任务的系统提示
// 提取是检索型任务，要求逐字、可重复的输出，不允许发挥
const systemInstruction = `You are a resume parsing engine. ` +
	`Extract candidate information from the resume text and respond with a single JSON object only, ` +
	`no markdown fences, no commentary. Copy values literally from the text; do not invent data.`

// extractionSchemaText 提示词中对目标schema的描述，随请求发给提供商
const extractionSchemaText = `{
  "fullName": "candidate full name (string, required)",
  "email": "email address, empty string if absent",
  "phone": "phone number, empty string if absent",
  "skills": ["list of skill strings, may be empty"],
  "experience": [{"role": "job title", "company": "employer", "years": "duration as string"}],
  "education": [{"degree": "degree name", "institution": "school name", "year": "year as string"}]
}`

// BuildExtractionPrompt 构造用户侧提示词，text应当已被截断
func BuildExtractionPrompt(text string) string {
	return "Extract the candidate information from the resume below. " +
		"Return a single JSON object with exactly this shape:\n" +
		extractionSchemaText +
		"\n\nResume text:\n" + text
}

// TruncateText 截断到前n个字符（按rune计）
func TruncateText(text string, n int) string {
	if n <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
