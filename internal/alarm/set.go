package alarm

import "github.com/magabrotheeeer/autopay-alert/internal/models"

// ActiveSet — упорядоченное множество подписок по id. Порядок — порядок добавления.
// Не потокобезопасно, синхронизацию обеспечивает Detector.
type ActiveSet struct {
	order []string
	items map[string]models.Subscription
}

// NewActiveSet создаёт пустое множество.
func NewActiveSet() *ActiveSet {
	return &ActiveSet{items: make(map[string]models.Subscription)}
}

// Add добавляет подписку, если её ещё нет. Возвращает true, если множество изменилось.
func (s *ActiveSet) Add(sub models.Subscription) bool {
	if _, ok := s.items[sub.ID]; ok {
		return false
	}
	s.items[sub.ID] = sub
	s.order = append(s.order, sub.ID)
	return true
}

// Remove удаляет подписку по id.
func (s *ActiveSet) Remove(id string) bool {
	if _, ok := s.items[id]; !ok {
		return false
	}
	delete(s.items, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Has сообщает, есть ли подписка в множестве.
func (s *ActiveSet) Has(id string) bool {
	_, ok := s.items[id]
	return ok
}

// Len — число активных будильников.
func (s *ActiveSet) Len() int {
	return len(s.order)
}

// List возвращает копии подписок в порядке добавления.
func (s *ActiveSet) List() []models.Subscription {
	out := make([]models.Subscription, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out
}

// Replace заменяет содержимое множества одной подпиской.
func (s *ActiveSet) Replace(sub models.Subscription) {
	s.Clear()
	s.Add(sub)
}

// Clear очищает множество.
func (s *ActiveSet) Clear() {
	s.order = nil
	s.items = make(map[string]models.Subscription)
}
