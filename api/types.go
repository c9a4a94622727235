package api

// PersonDetails represents the currently authenticated person.
type PersonDetails struct {
	ID         int      `json:"id"`
	FirstName  string   `json:"first_name"`
	LastName   string   `json:"last_name"`
	Username   string   `json:"username"`
	Email      string   `json:"email"`
	IsMember   bool     `json:"is_member"`
	Committees []string `json:"committees"`
}

// Activity represents an activity, including its signup options. SignedUp is
// only meaningful when the call supplying it was authenticated.
type Activity struct {
	ID          int            `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Location    string         `json:"location"`
	BeginDate   string         `json:"begin_date"`
	EndDate     string         `json:"end_date"`
	Price       float64        `json:"price"`
	CanSignup   bool           `json:"can_signup"`
	SignedUp    bool           `json:"signed_up"`
	Options     []SignupOption `json:"options"`
}

// SignupOption is an option offered by an activity. Selecting it may change
// the price of the activity.
type SignupOption struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Required bool    `json:"required"`
}

// SignupOptionValue is a selected option in an ActivitySignup call.
type SignupOptionValue struct {
	ID    int    `json:"id"`
	Value string `json:"value"`
}
