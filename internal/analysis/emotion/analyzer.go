package emotion

import (
	"strings"
	"unicode"
)

// Label 表示情绪分类模型输出的标签。
type Label string

const (
	Sadness  Label = "sadness"
	Joy      Label = "joy"
	Fear     Label = "fear"
	Anger    Label = "anger"
	Neutral  Label = "neutral"
	Surprise Label = "surprise"
	Disgust  Label = "disgust"
	Love     Label = "love"
)

// Labels lists the closed taxonomy in a stable order.
var Labels = []Label{Sadness, Joy, Fear, Anger, Neutral, Surprise, Disgust, Love}

// Normalize maps a raw model label onto the taxonomy. Anything unknown becomes Neutral.
func Normalize(raw string) Label {
	switch Label(strings.ToLower(strings.TrimSpace(raw))) {
	case Sadness:
		return Sadness
	case Joy:
		return Joy
	case Fear:
		return Fear
	case Anger:
		return Anger
	case Surprise:
		return Surprise
	case Disgust:
		return Disgust
	case Love:
		return Love
	default:
		return Neutral
	}
}

// Known reports whether raw names a label of the taxonomy.
func Known(raw string) bool {
	l := Label(strings.ToLower(strings.TrimSpace(raw)))
	for _, label := range Labels {
		if l == label {
			return true
		}
	}
	return false
}

// keywordBuckets only holds words and phrases that express a feeling. Words that are common in
// plain clinical questions ("down", "empty", "vomit", "my mother") appear only inside feeling phrases.
var keywordBuckets = map[Label][]string{
	Sadness: {
		"sad", "hopeless", "depressed", "unhappy", "lonely", "crying", "grief", "miserable",
		"heartbroken", "tearful", "despair", "worthless", "gave up",
		"feel down", "feeling down", "feel empty", "feeling empty", "feel so alone",
	},
	Joy: {
		"happy", "glad", "great news", "relieved", "excited", "wonderful", "awesome",
		"feeling good", "feel great", "delighted", "yay",
	},
	Fear: {
		"scared", "afraid", "worried", "anxious", "terrified", "nervous", "panicking", "frightened",
		"i fear", "is it serious",
	},
	Anger: {
		"angry", "furious", "annoyed", "frustrated", "hate", "sick of", "fed up",
		"ridiculous", "unacceptable", "rage", "so mad",
	},
	Surprise: {
		"surprised", "wow", "can't believe", "shocked", "no way",
	},
	Disgust: {
		"disgusting", "disgusted", "gross", "revolting", "yuck",
	},
	Love: {
		"i love", "love you", "adore", "cherish", "so grateful",
	},
}

// Analyze infers an emotion label from keywords. Empty text and text without any signal map to Neutral.
func Analyze(text string) Label {
	normalized := tokenize(text)
	if normalized == "" {
		return Neutral
	}

	// 按标签顺序遍历，保证相同得分时结果稳定。
	best := Neutral
	bestScore := 0
	for _, label := range Labels {
		score := 0
		for _, word := range keywordBuckets[label] {
			if strings.Contains(normalized, " "+word+" ") {
				score += 3
			}
		}
		if label == Surprise {
			score += strings.Count(text, "!")
		}
		if score > bestScore {
			best = label
			bestScore = score
		}
	}
	return best
}

// tokenize lower-cases text and pads every word with single spaces so keywords match whole words only.
func tokenize(text string) string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	if len(fields) == 0 {
		return ""
	}
	return " " + strings.Join(fields, " ") + " "
}
