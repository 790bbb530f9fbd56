package keychain

// Keys of the entries the auth layer persists.
const (
	KeyNativeUserID      = "native_user_id"
	KeyNativeIDToken     = "native_id_token"
	KeyThirdPartyUserID  = "third_party_user_id"
	KeyThirdPartyIDToken = "third_party_id_token"
	KeyUserEmail         = "user_email"
	KeyUserFullName      = "user_full_name"
	KeyAuthProvider      = "auth_provider"
)

// AllKeys lists every key above.
var AllKeys = []string{
	KeyNativeUserID,
	KeyNativeIDToken,
	KeyThirdPartyUserID,
	KeyThirdPartyIDToken,
	KeyUserEmail,
	KeyUserFullName,
	KeyAuthProvider,
}
