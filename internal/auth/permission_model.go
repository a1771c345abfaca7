package auth

// OpenFGA 对象类型
const (
	ObjectChecklist = "checklist"
	ObjectExtension = "extension"
)

// OpenFGA 关系
const (
	RelationViewer   = "viewer"
	RelationReviewer = "reviewer"
	RelationApprover = "approver"
	RelationOwner    = "owner"
)

// GetPermissionModel 获取 OpenFGA 权限模型定义
func GetPermissionModel() string {
	return `model
  schema 1.1

type user

type checklist
  relations
    define owner: [user]
    define rm: [user]
    define checker: [user]
    define co_checker: [user]
    define reviewer: [user] or checker or co_checker
    define viewer: [user] or owner or rm or reviewer

type extension
  relations
    define requester: [user]
    define approver: [user]
    define owner: [user] or requester
    define viewer: [user] or requester or approver`
}
