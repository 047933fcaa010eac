package userui

import (
	"fmt"
	"net/http"
	"strconv"

	"hiddenplaces/internal/domain"
	"hiddenplaces/internal/service"
)

type profileView struct {
	Profile domain.UserProfile
	Own     bool
}

func (a *app) handleOwnProfile(w http.ResponseWriter, r *http.Request) {
	a.showProfile(w, r, currentUser(r).ID)
}

func (a *app) handleProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
		return
	}
	a.showProfile(w, r, id)
}

func (a *app) showProfile(w http.ResponseWriter, r *http.Request, id int64) {
	p, err := a.usersSvc.Profile(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.render(w, r, http.StatusOK, "profile", viewData{
		Title: p.FullName(),
		Data:  profileView{Profile: p, Own: p.ID == currentUser(r).ID},
	})
}

func (a *app) handleEditProfileGet(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "profile_edit", viewData{Title: "Edit profile", Data: currentUser(r).About})
}

func (a *app) handleEditProfilePost(w http.ResponseWriter, r *http.Request) {
	if err := a.parseForm(w, r); err != nil {
		a.render(w, r, http.StatusBadRequest, "profile_edit", viewData{Title: "Edit profile", Error: "The upload is too large."})
		return
	}
	photo, done, err := formFile(r, "photo")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	defer done()

	about := r.FormValue("about")
	if _, err := a.usersSvc.EditProfile(r.Context(), currentUser(r), about, photo); err != nil {
		a.formError(w, r, err, "profile_edit", viewData{Title: "Edit profile", Data: about})
		return
	}
	redirectNotice(w, r, "/user/profile", "saved")
}

func (a *app) handleChangePasswordGet(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "change_password", viewData{Title: "Change password"})
}

func (a *app) handleChangePasswordPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.render(w, r, http.StatusBadRequest, "change_password", viewData{Title: "Change password", Error: "Invalid form."})
		return
	}
	err := a.usersSvc.ChangePassword(r.Context(), currentUser(r),
		r.FormValue("current"), r.FormValue("password"), r.FormValue("password2"))
	if err != nil {
		a.formError(w, r, err, "change_password", viewData{Title: "Change password"})
		return
	}
	redirectNotice(w, r, "/user/profile", "password_changed")
}

func (a *app) handleChangeEmailGet(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "change_email", viewData{Title: "Change email", Data: currentUser(r).Email})
}

func (a *app) handleChangeEmailPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.render(w, r, http.StatusBadRequest, "change_email", viewData{Title: "Change email", Error: "Invalid form."})
		return
	}
	addr := r.FormValue("email")
	if err := a.resetSvc.RequestEmailChange(r.Context(), currentUser(r), addr); err != nil {
		a.formError(w, r, err, "change_email", viewData{Title: "Change email", Data: addr})
		return
	}
	redirectNotice(w, r, "/user/profile", "email_sent")
}

type banForm struct {
	Target    domain.User
	Reason    string
	Days      int
	Permanent bool
}

func (a *app) targetUser(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
		return domain.User{}, false
	}
	u, err := a.usersSvc.Get(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return domain.User{}, false
	}
	return u, true
}

func (a *app) handleBanGet(w http.ResponseWriter, r *http.Request) {
	target, ok := a.targetUser(w, r)
	if !ok {
		return
	}
	a.render(w, r, http.StatusOK, "ban", viewData{
		Title: "Ban " + target.FullName(),
		Data:  banForm{Target: target, Days: domain.DefaultBanDays},
	})
}

func (a *app) handleBanPost(w http.ResponseWriter, r *http.Request) {
	target, ok := a.targetUser(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		a.fail(w, r, domain.FieldError("form", "Invalid form."))
		return
	}
	form := banForm{
		Target:    target,
		Reason:    r.FormValue("reason"),
		Days:      formInt(r, "days"),
		Permanent: formBool(r, "permanent"),
	}
	_, err := a.usersSvc.Ban(r.Context(), currentUser(r), target.ID, service.BanInput{
		Reason:    form.Reason,
		Days:      form.Days,
		Permanent: form.Permanent,
	})
	if err != nil {
		a.formError(w, r, err, "ban", viewData{Title: "Ban " + target.FullName(), Data: form})
		return
	}
	redirectNotice(w, r, fmt.Sprintf("/user/%d", target.ID), "banned")
}

func (a *app) handleInviteGet(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "invite", viewData{Title: "Invite", Data: service.InviteInput{}})
}

func (a *app) handleInvitePost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.render(w, r, http.StatusBadRequest, "invite", viewData{Title: "Invite", Error: "Invalid form.", Data: service.InviteInput{}})
		return
	}
	in := service.InviteInput{
		Email:  r.FormValue("email"),
		Name:   r.FormValue("name"),
		Reason: r.FormValue("reason"),
	}
	if _, err := a.inviteSvc.Invite(r.Context(), currentUser(r), in); err != nil {
		a.formError(w, r, err, "invite", viewData{Title: "Invite", Data: in})
		return
	}
	redirectNotice(w, r, "/user/invite", "invited")
}

type roleForm struct {
	Target domain.User
	Roles  []domain.Role
}

func (a *app) handleRoleGet(w http.ResponseWriter, r *http.Request) {
	target, ok := a.targetUser(w, r)
	if !ok {
		return
	}
	a.render(w, r, http.StatusOK, "role", viewData{
		Title: "Role of " + target.FullName(),
		Data:  roleForm{Target: target, Roles: domain.AssignableRoles()},
	})
}

func (a *app) handleRolePost(w http.ResponseWriter, r *http.Request) {
	target, ok := a.targetUser(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		a.fail(w, r, domain.FieldError("form", "Invalid form."))
		return
	}
	role, err := strconv.Atoi(r.FormValue("role"))
	if err != nil {
		role = -1
	}
	if err := a.usersSvc.ChangeRole(r.Context(), currentUser(r), target.ID, domain.Role(role)); err != nil {
		a.formError(w, r, err, "role", viewData{
			Title: "Role of " + target.FullName(),
			Data:  roleForm{Target: target, Roles: domain.AssignableRoles()},
		})
		return
	}
	redirectNotice(w, r, fmt.Sprintf("/user/%d", target.ID), "role_changed")
}
