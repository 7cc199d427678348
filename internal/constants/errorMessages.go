package constants

const (
	MsgInvalidBody    = "Invalid request body"
	MsgMissingParam   = "Missing required parameter"
	MsgUnauthorized   = "Authentication required"
	MsgForbidden      = "You do not have permission to use the site tracker"
	MsgRateLimited    = "Rate limit exceeded"
	MsgInternal       = "Internal server error"
	MsgFleetLeft      = "Left fleet"
	MsgFleetsLeft     = "Left all fleets"
	MsgFleetDisbanded = "Fleet disbanded"
	MsgMemberKicked   = "Member removed from fleet"
	MsgBossPromoted   = "Boss changed"
	MsgSiteRemoved    = "Site removed"
	MsgClaimRemoved   = "Claim removed"
	MsgClaimApproved  = "Claim approved"
)
