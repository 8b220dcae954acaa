package types

import "encoding/json"

// Message is the single inbound request envelope handled by the router.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Result is the uniform response envelope for every routed request.
type Result struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *string     `json:"error,omitempty"`
}

// Ok builds a successful result.
func Ok(data interface{}) Result {
	return Result{Success: true, Data: data}
}

// Fail builds a failed result.
func Fail(msg string) Result {
	return Result{Success: false, Error: &msg}
}

// Request types accepted by the router.
const (
	MsgGetTabActivity   = "GET_TAB_ACTIVITY"
	MsgGetStaleTabs     = "GET_STALE_TABS"
	MsgSaveTabs         = "SAVE_TABS"
	MsgCloseTabs        = "CLOSE_TABS"
	MsgGetFolders       = "GET_FOLDERS"
	MsgCreateFolder     = "CREATE_FOLDER"
	MsgUpdateFolder     = "UPDATE_FOLDER"
	MsgDeleteFolder     = "DELETE_FOLDER"
	MsgGetSavedTabs     = "GET_SAVED_TABS"
	MsgDeleteSavedTab   = "DELETE_SAVED_TAB"
	MsgRestoreTabs      = "RESTORE_TABS"
	MsgGetSmartSessions = "GET_SMART_SESSIONS"
	MsgGetTabGroups     = "GET_TAB_GROUPS"
	MsgGetSettings      = "GET_SETTINGS"
	MsgUpdateSettings   = "UPDATE_SETTINGS"
)
