package common

import (
	"github.com/logrusorgru/aurora"
)

func AlertColor(str string) string {
	return aurora.Red(str).String()
}

func InfoColor(str string) string {
	return aurora.Green(str).String()
}

func LabelWithColor(label string) string {
	if label == "" {
		return AlertColor("unlabeled")
	}
	return InfoColor(label)
}
