package modules

import "github.com/go-chi/chi"

type Module interface {
	Mount(r chi.Router)
	Shutdown()
}
