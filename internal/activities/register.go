package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.CheckMemberNameActivity)
	w.RegisterActivity(a.RegisterMemberActivity)
	w.RegisterActivity(a.PersistMemberActivity)
}
