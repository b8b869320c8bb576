package models

// Значения профиля по умолчанию.
const (
	DefaultCurrency   = "$"
	DefaultLanguage   = "en"
	DefaultTimezone   = "UTC"
	DefaultAlarmSound = "radar"
)

// UserProfile — единственный профиль на идентичность. Используется детектором
// будильников (часовой пояс) и сервисами как источник валюты и языка.
type UserProfile struct {
	UserUID    string `json:"-"`
	Name       string `json:"name"`
	Avatar     string `json:"avatar"`
	Currency   string `json:"currency"`
	Language   string `json:"language"`
	Timezone   string `json:"timezone"`
	AlarmSound string `json:"alarm_sound"`
}

// DefaultProfile возвращает профиль, который используется до первого сохранения.
func DefaultProfile(userUID string) UserProfile {
	return UserProfile{
		UserUID:    userUID,
		Name:       "Commander",
		Currency:   DefaultCurrency,
		Language:   DefaultLanguage,
		Timezone:   DefaultTimezone,
		AlarmSound: DefaultAlarmSound,
	}
}

// DummyProfile используется для приёма профиля из JSON-запроса.
type DummyProfile struct {
	Name       string `json:"name" validate:"max=100"`
	Avatar     string `json:"avatar"`
	Currency   string `json:"currency" validate:"required,max=8"`
	Language   string `json:"language" validate:"required,oneof=en jp es fr"`
	Timezone   string `json:"timezone" validate:"required"`
	AlarmSound string `json:"alarm_sound"`
}
