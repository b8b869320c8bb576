// Package smtp открывает STARTTLS-сессии с почтовым сервером для alarm-notifier.
package smtp

import "io"

// Client — часть *smtp.Client, нужная для отправки одного письма.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// TransportInterface открывает сессию и сообщает адрес отправителя.
type TransportInterface interface {
	Connect() (Client, error)
	GetSMTPUser() string
}
