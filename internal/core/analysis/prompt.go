package analysis

import "food-analyzer/internal/core/ai/provider"

// systemPrompt 固定的模型指令，描述四種允許的輸出格式
const systemPrompt = `Ты — эксперт по диетологии. Проанализируй фото и верни ТОЛЬКО JSON. Сравнивай с данными из USDA, Роспотребнадзор, Open Food Facts.

СТРУКТУРА JSON:
1. Еда найдена: {"status": "success", "food_items": {"название": {"proteins": float, "fats": float, "carbohydrates": float, "water": float, "weight": int, "benefit_score": float}}}
2. Не еда: {"status": "not_found", "message": "Причина"}
3. Опасно (яд/испорчено): {"status": "danger", "message": "Почему опасно", "food_items": {...}}
4. Невозможно проанализировать: {"status": "error", "message": "Причина"}

ПРАВИЛА:
- Ответ ТОЛЬКО в формате JSON без markdown и комментариев.
- Язык: РУССКИЙ.
- БЖУ: только ДРОБНЫЕ числа (граммы например: 12.5 или 5.0).
- Вес: только ЦЕЛЫЕ числа (граммы) на основе визуальной оценки порции.
- Benefit_score: от 1.0 до 5.0. Если status=danger, score всегда 0.0.
- Составные блюда (суп, салат) — одним объектом.
- Все данные считать для уже готового блюда.
- Вес оценивай визуально по размеру порции на фото.`

// sampling 固定取樣參數
var sampling = provider.Sampling{
	Temperature: 0.1,
	TopP:        0.95,
	TopK:        1,
	JSON:        true,
}

// buildRequest 組成單次推理請求
func buildRequest(img Image) *provider.Request {
	return &provider.Request{
		Prompt: systemPrompt,
		Image: provider.Image{
			Data:     img.Data,
			MIMEType: img.MIMEType,
		},
		Sampling: sampling,
	}
}
