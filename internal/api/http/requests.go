package http

// OpenRequest opens (or raises) the window for an app
type OpenRequest struct {
	AppID string                 `json:"app_id" binding:"required"`
	Props map[string]interface{} `json:"props,omitempty"`
}

// MoveRequest moves a window's origin
type MoveRequest struct {
	X *int `json:"x" binding:"required"`
	Y *int `json:"y" binding:"required"`
}

// ResizeRequest resizes a window. X and Y move the origin too, for resizes
// from the north or west edges; both or neither must be set.
type ResizeRequest struct {
	Width  int  `json:"width" binding:"required,gt=0"`
	Height int  `json:"height" binding:"required,gt=0"`
	X      *int `json:"x,omitempty" binding:"required_with=Y"`
	Y      *int `json:"y,omitempty" binding:"required_with=X"`
}

// TitleRequest overrides the window title; null reverts to the app title
type TitleRequest struct {
	Title *string `json:"title"`
}

// IconRequest overrides the window icon; null reverts to the app icon
type IconRequest struct {
	Icon *string `json:"icon"`
}

// BadgeRequest sets the badge count; null or zero clears it
type BadgeRequest struct {
	Count *int `json:"count"`
}
