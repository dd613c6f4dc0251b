package emotion

// EmpathyPrefix returns the sentence prepended to an answer for the detected emotion.
// The lookup is total: labels outside the table, including future ones, get an empty prefix.
func EmpathyPrefix(label Label) string {
	switch label {
	case Sadness:
		return "I'm really sorry you're feeling this way. "
	case Joy:
		return "That's great to hear! 😊 "
	case Fear:
		return "I understand that this might be scary. "
	case Anger:
		return "I hear your frustration. "
	case Neutral:
		return ""
	case Surprise:
		return "Interesting! "
	case Disgust:
		return "That sounds unpleasant. "
	case Love:
		return "Sending positive energy your way. ❤️"
	default:
		return ""
	}
}
